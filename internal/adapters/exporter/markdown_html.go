package exporter

import (
	"fmt"
	"html"
	"strings"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/markdown"
)

// htmlRenderer — визитер AST разметки, выдающий HTML.
type htmlRenderer struct {
	sb    strings.Builder
	ec    *services.ExportContext
	jumbo bool
}

// renderHTML переводит разметку сообщения в HTML. В режиме jumbo
// эмодзи увеличиваются: он включается для сообщений из одних эмодзи.
func renderHTML(ec *services.ExportContext, content string, jumbo bool) string {
	var nodes []markdown.Node
	if ec.Request.ShouldFormatMarkdown {
		nodes = markdown.Parse(content)
	} else {
		nodes = markdown.ParseMinimal(content)
	}

	r := &htmlRenderer{ec: ec, jumbo: jumbo && markdown.IsEmojiOnly(nodes)}
	_ = markdown.Accept(nodes, r)
	return r.sb.String()
}

func (r *htmlRenderer) write(s string)         { r.sb.WriteString(s) }
func (r *htmlRenderer) escape(s string) string { return html.EscapeString(s) }

func (r *htmlRenderer) VisitText(n markdown.TextNode) error {
	r.write(strings.ReplaceAll(r.escape(n.Content), "\n", "<br>"))
	return nil
}

func (r *htmlRenderer) VisitFormatting(n markdown.FormattingNode) error {
	var opening, closing string
	switch n.Kind {
	case markdown.FormattingBold:
		opening, closing = "<strong>", "</strong>"
	case markdown.FormattingItalic:
		opening, closing = "<em>", "</em>"
	case markdown.FormattingUnderline:
		opening, closing = "<u>", "</u>"
	case markdown.FormattingStrikethrough:
		opening, closing = "<s>", "</s>"
	case markdown.FormattingSpoiler:
		opening, closing = `<span class="spoiler spoiler--hidden" onclick="showSpoiler(this)">`, "</span>"
	case markdown.FormattingQuote:
		opening, closing = `<div class="quote">`, "</div>"
	}
	r.write(opening)
	if err := markdown.Accept(n.Children, r); err != nil {
		return err
	}
	r.write(closing)
	return nil
}

func (r *htmlRenderer) VisitHeading(n markdown.HeadingNode) error {
	tag := fmt.Sprintf("h%d", n.Level)
	r.write("<" + tag + ">")
	if err := markdown.Accept(n.Children, r); err != nil {
		return err
	}
	r.write("</" + tag + ">")
	return nil
}

func (r *htmlRenderer) VisitList(n markdown.ListNode) error {
	r.write("<ul>")
	for _, item := range n.Items {
		r.write("<li>")
		if err := markdown.Accept(item.Children, r); err != nil {
			return err
		}
		r.write("</li>")
	}
	r.write("</ul>")
	return nil
}

func (r *htmlRenderer) VisitInlineCode(n markdown.InlineCodeNode) error {
	r.write(`<code class="inline-code">` + r.escape(n.Code) + "</code>")
	return nil
}

func (r *htmlRenderer) VisitMultiLineCode(n markdown.MultiLineCodeNode) error {
	class := "block-code"
	if n.Language != "" {
		class += " language-" + r.escape(n.Language)
	}
	r.write(`<pre class="` + class + `"><code>` + r.escape(n.Code) + "</code></pre>")
	return nil
}

func (r *htmlRenderer) VisitLink(n markdown.LinkNode) error {
	r.write(`<a href="` + r.escape(n.URL) + `">`)
	if len(n.Children) == 0 {
		r.write(r.escape(n.URL))
	} else if err := markdown.Accept(n.Children, r); err != nil {
		return err
	}
	r.write("</a>")
	return nil
}

func (r *htmlRenderer) VisitEmoji(n markdown.EmojiNode) error {
	class := "emoji"
	if r.jumbo {
		class += " chatlog__emoji--large"
	}
	r.write(fmt.Sprintf(`<img class="%s" alt="%s" title="%s" src="%s">`,
		class, r.escape(n.Name), r.escape(n.Code()), r.escape(n.ImageURL())))
	return nil
}

func (r *htmlRenderer) VisitMention(n markdown.MentionNode) error {
	var label string
	switch n.Kind {
	case markdown.MentionEveryone:
		label = "@everyone"
	case markdown.MentionHere:
		label = "@here"
	case markdown.MentionUser:
		name := "Unknown"
		if member := r.ec.TryGetMember(n.TargetID); member != nil {
			name = member.DisplayName()
		}
		label = "@" + name
	case markdown.MentionChannel:
		name := "deleted-channel"
		if channel := r.ec.TryGetChannel(n.TargetID); channel != nil {
			name = channel.Name
		}
		label = "#" + name
	case markdown.MentionRole:
		name := "deleted-role"
		if role, ok := r.ec.TryGetRole(n.TargetID); ok {
			name = role.Name
		}
		label = "@" + name
	}
	r.write(`<span class="mention">` + r.escape(label) + "</span>")
	return nil
}

func (r *htmlRenderer) VisitTimestamp(n markdown.TimestampNode) error {
	if n.Instant == nil {
		r.write(`<span class="timestamp">Invalid date</span>`)
		return nil
	}
	format := n.Format
	if format == "" {
		format = "R"
	}
	full := r.ec.FormatDate(*n.Instant, "F")
	r.write(`<span class="timestamp" title="` + r.escape(full) + `">` +
		r.escape(r.ec.FormatDate(*n.Instant, format)) + "</span>")
	return nil
}
