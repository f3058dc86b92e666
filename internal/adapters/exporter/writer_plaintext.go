package exporter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

const plainTextBanner = "=============================================================="

// plainTextWriter пишет выгрузку в простой текст.
type plainTextWriter struct {
	w        io.Writer
	ec       *services.ExportContext
	messages int64
}

func newPlainTextWriter(w io.Writer, ec *services.ExportContext) *plainTextWriter {
	return &plainTextWriter{w: w, ec: ec}
}

func (p *plainTextWriter) writeLine(parts ...string) error {
	_, err := io.WriteString(p.w, strings.Join(parts, "")+"\n")
	return err
}

func (p *plainTextWriter) writePreamble(context.Context) error {
	lines := []string{
		plainTextBanner,
		"Guild: " + p.ec.Guild.Name,
		"Channel: " + p.ec.Channel.HierarchicalName(),
	}
	if topic := p.ec.Channel.Topic; topic != "" {
		lines = append(lines, "Topic: "+topic)
	}
	if dateRange := p.ec.FormatDateRange(); dateRange != "" {
		lines = append(lines, "Range: "+dateRange)
	}
	lines = append(lines, plainTextBanner, "")

	for _, line := range lines {
		if err := p.writeLine(line); err != nil {
			return err
		}
	}
	return nil
}

func (p *plainTextWriter) writeMessage(ctx context.Context, m *domain.Message) error {
	header := "[" + p.ec.FormatDate(m.Timestamp, "f") + "] " + m.Author.FullName()
	if m.IsPinned {
		header += " (pinned)"
	}
	if err := p.writeLine(header); err != nil {
		return err
	}

	content := m.Content
	if m.IsSystemNotification() {
		content = m.GetFallbackContent()
	} else {
		content = renderPlainText(p.ec, content)
	}
	if content != "" {
		if err := p.writeLine(content); err != nil {
			return err
		}
	}
	if m.CallEndedTimestamp != nil {
		if err := p.writeLine("Ended: ", p.ec.FormatDate(*m.CallEndedTimestamp, "f")); err != nil {
			return err
		}
	}

	if len(m.Attachments) > 0 {
		if err := p.writeLine("{Attachments}"); err != nil {
			return err
		}
		for _, a := range m.Attachments {
			if err := p.writeLine(p.ec.ResolveAssetURL(ctx, a.URL)); err != nil {
				return err
			}
		}
	}

	for _, e := range m.Embeds {
		if err := p.writeEmbed(e); err != nil {
			return err
		}
	}

	if len(m.Stickers) > 0 {
		if err := p.writeLine("{Stickers}"); err != nil {
			return err
		}
		for _, s := range m.Stickers {
			if err := p.writeLine(s.Name, " (", p.ec.ResolveAssetURL(ctx, s.SourceURL()), ")"); err != nil {
				return err
			}
		}
	}

	if len(m.Reactions) > 0 {
		if err := p.writeLine("{Reactions}"); err != nil {
			return err
		}
		var parts []string
		for _, r := range m.Reactions {
			label := r.Emoji.Name
			if r.Emoji.IsCustom() {
				label = ":" + r.Emoji.Name + ":"
			}
			parts = append(parts, fmt.Sprintf("%s (%d)", label, r.Count))
		}
		if err := p.writeLine(strings.Join(parts, " ")); err != nil {
			return err
		}
	}

	p.messages++
	return p.writeLine("")
}

func (p *plainTextWriter) writeEmbed(e domain.Embed) error {
	if err := p.writeLine("{Embed}"); err != nil {
		return err
	}
	fields := []string{}
	if e.Author != nil && e.Author.Name != "" {
		fields = append(fields, e.Author.Name)
	}
	if e.URL != "" {
		fields = append(fields, e.URL)
	}
	if e.Title != "" {
		fields = append(fields, renderPlainText(p.ec, e.Title))
	}
	if e.Description != "" {
		fields = append(fields, renderPlainText(p.ec, e.Description))
	}
	for _, f := range e.Fields {
		fields = append(fields, f.Name+": "+renderPlainText(p.ec, f.Value))
	}
	for _, img := range e.Images {
		fields = append(fields, img.URL)
	}
	if e.Footer != nil && e.Footer.Text != "" {
		fields = append(fields, e.Footer.Text)
	}
	for _, line := range fields {
		if err := p.writeLine(line); err != nil {
			return err
		}
	}
	return nil
}

func (p *plainTextWriter) writePostamble(context.Context) error {
	if err := p.writeLine(plainTextBanner); err != nil {
		return err
	}
	if err := p.writeLine(fmt.Sprintf("Exported %d message(s)", p.messages)); err != nil {
		return err
	}
	return p.writeLine(plainTextBanner)
}

func (p *plainTextWriter) flush() error { return nil }
