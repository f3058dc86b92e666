package exporter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

func TestConsoleReporter_Report(t *testing.T) {
	t.Run("пустой список результатов", func(t *testing.T) {
		var sb strings.Builder
		NewConsoleReporterTo(&sb).Report(nil)

		assert.Contains(t, sb.String(), "Nothing was exported.")
	})

	t.Run("таблица с итоговой строкой", func(t *testing.T) {
		var sb strings.Builder
		results := []*services.ExportResult{
			{
				Channel:  &domain.Channel{Name: "general", Kind: domain.ChannelKindGuildText},
				Messages: 120,
				Bytes:    2048,
			},
			{
				Channel:  &domain.Channel{Name: "announcements", Kind: domain.ChannelKindGuildText},
				Messages: 3,
				Bytes:    512,
			},
		}

		NewConsoleReporterTo(&sb).Report(results)
		out := sb.String()

		assert.Contains(t, out, "--- Export Summary ---")
		assert.Contains(t, out, "general")
		assert.Contains(t, out, "120 message(s)")
		assert.Contains(t, out, "Total: 123 message(s)")
		assert.Contains(t, out, "2 channel(s)")
	})
}
