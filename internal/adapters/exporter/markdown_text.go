package exporter

import (
	"strings"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/markdown"
)

// textRenderer — визитер AST разметки, выдающий простой текст.
// Форматирование отбрасывается, а упоминания, эмодзи и метки времени
// замещаются человекочитаемыми значениями.
type textRenderer struct {
	sb strings.Builder
	ec *services.ExportContext
}

// renderPlainText переводит разметку сообщения в простой текст.
// Без форматирования разбирается только минимальный профиль:
// упоминания, кастомные эмодзи и метки времени.
func renderPlainText(ec *services.ExportContext, content string) string {
	var nodes []markdown.Node
	if ec.Request.ShouldFormatMarkdown {
		nodes = markdown.Parse(content)
	} else {
		nodes = markdown.ParseMinimal(content)
	}

	r := &textRenderer{ec: ec}
	// Текстовый рендер не возвращает ошибок.
	_ = markdown.Accept(nodes, r)
	return r.sb.String()
}

func (r *textRenderer) VisitText(n markdown.TextNode) error {
	r.sb.WriteString(n.Content)
	return nil
}

func (r *textRenderer) VisitFormatting(n markdown.FormattingNode) error {
	if n.Kind == markdown.FormattingQuote {
		inner := &textRenderer{ec: r.ec}
		_ = markdown.Accept(n.Children, inner)
		for _, line := range strings.Split(strings.TrimRight(inner.sb.String(), "\n"), "\n") {
			r.sb.WriteString("> ")
			r.sb.WriteString(line)
			r.sb.WriteString("\n")
		}
		return nil
	}
	return markdown.Accept(n.Children, r)
}

func (r *textRenderer) VisitHeading(n markdown.HeadingNode) error {
	if err := markdown.Accept(n.Children, r); err != nil {
		return err
	}
	r.sb.WriteString("\n")
	return nil
}

func (r *textRenderer) VisitList(n markdown.ListNode) error {
	for _, item := range n.Items {
		r.sb.WriteString("- ")
		if err := markdown.Accept(item.Children, r); err != nil {
			return err
		}
		r.sb.WriteString("\n")
	}
	return nil
}

func (r *textRenderer) VisitInlineCode(n markdown.InlineCodeNode) error {
	r.sb.WriteString(n.Code)
	return nil
}

func (r *textRenderer) VisitMultiLineCode(n markdown.MultiLineCodeNode) error {
	r.sb.WriteString(n.Code)
	return nil
}

func (r *textRenderer) VisitLink(n markdown.LinkNode) error {
	text := markdown.TextContent(n.Children)
	if text == "" || text == n.URL {
		r.sb.WriteString(n.URL)
		return nil
	}
	return markdown.Accept(n.Children, r)
}

func (r *textRenderer) VisitEmoji(n markdown.EmojiNode) error {
	if n.IsCustom() {
		r.sb.WriteString(":")
		r.sb.WriteString(n.Name)
		r.sb.WriteString(":")
		return nil
	}
	r.sb.WriteString(n.Name)
	return nil
}

func (r *textRenderer) VisitMention(n markdown.MentionNode) error {
	switch n.Kind {
	case markdown.MentionEveryone:
		r.sb.WriteString("@everyone")
	case markdown.MentionHere:
		r.sb.WriteString("@here")
	case markdown.MentionUser:
		name := "Unknown"
		if member := r.ec.TryGetMember(n.TargetID); member != nil {
			name = member.DisplayName()
		}
		r.sb.WriteString("@")
		r.sb.WriteString(name)
	case markdown.MentionChannel:
		name := "deleted-channel"
		if channel := r.ec.TryGetChannel(n.TargetID); channel != nil {
			name = channel.Name
		}
		r.sb.WriteString("#")
		r.sb.WriteString(name)
	case markdown.MentionRole:
		name := "deleted-role"
		if role, ok := r.ec.TryGetRole(n.TargetID); ok {
			name = role.Name
		}
		r.sb.WriteString("@")
		r.sb.WriteString(name)
	}
	return nil
}

func (r *textRenderer) VisitTimestamp(n markdown.TimestampNode) error {
	if n.Instant == nil {
		r.sb.WriteString("Invalid date")
		return nil
	}
	format := n.Format
	if format == "" {
		format = "R"
	}
	r.sb.WriteString(r.ec.FormatDate(*n.Instant, format))
	return nil
}
