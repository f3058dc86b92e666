package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

func TestBuildRunReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	results := []*services.ExportResult{
		{
			Guild:    domain.Guild{ID: 10, Name: "Test Guild"},
			Channel:  &domain.Channel{ID: 100, Kind: domain.ChannelKindGuildText, Name: "general"},
			Messages: 120,
			Bytes:    2048,
		},
		{
			Guild:    domain.Guild{ID: 10, Name: "Test Guild"},
			Channel:  &domain.Channel{ID: 200, Kind: domain.ChannelKindGuildText, Name: "announcements"},
			Messages: 3,
			Bytes:    512,
		},
	}

	require.NoError(t, BuildRunReport(path, results))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		v, err := f.GetCellValue(reportSheet, cell)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Guild", get("A1"))
	assert.Equal(t, "Messages", get("D1"))

	assert.Equal(t, "Test Guild", get("A2"))
	assert.Equal(t, "100", get("C2"))
	assert.Equal(t, "120", get("D2"))

	assert.Equal(t, "announcements", get("B3"))

	// Итоговая строка идет сразу за каналами.
	assert.Equal(t, "Total", get("A4"))
	assert.Equal(t, "2 channel(s)", get("B4"))
	assert.Equal(t, "123", get("D4"))
}
