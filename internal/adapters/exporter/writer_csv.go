package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

// csvWriter пишет выгрузку в CSV с BOM, чтобы табличные редакторы
// распознавали UTF-8.
type csvWriter struct {
	raw io.Writer
	csv *csv.Writer
	ec  *services.ExportContext
}

func newCSVWriter(w io.Writer, ec *services.ExportContext) *csvWriter {
	return &csvWriter{raw: w, csv: csv.NewWriter(w), ec: ec}
}

func (c *csvWriter) writePreamble(context.Context) error {
	if _, err := c.raw.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	return c.csv.Write([]string{"AuthorID", "Author", "Date", "Content", "Attachments", "Reactions"})
}

func (c *csvWriter) writeMessage(ctx context.Context, m *domain.Message) error {
	content := m.Content
	if m.IsSystemNotification() {
		content = m.GetFallbackContent()
	} else {
		content = renderPlainText(c.ec, content)
	}

	attachments := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, c.ec.ResolveAssetURL(ctx, a.URL))
	}

	reactions := make([]string, 0, len(m.Reactions))
	for _, r := range m.Reactions {
		label := r.Emoji.Name
		if r.Emoji.IsCustom() {
			label = ":" + r.Emoji.Name + ":"
		}
		reactions = append(reactions, fmt.Sprintf("%s (%d)", label, r.Count))
	}

	return c.csv.Write([]string{
		m.Author.ID.String(),
		m.Author.FullName(),
		c.ec.FormatDate(m.Timestamp, "f"),
		content,
		strings.Join(attachments, ","),
		strings.Join(reactions, ","),
	})
}

func (c *csvWriter) writePostamble(context.Context) error { return nil }

func (c *csvWriter) flush() error {
	c.csv.Flush()
	return c.csv.Error()
}
