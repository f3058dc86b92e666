package exporter

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

func templateContext() *services.ExportContext {
	after := domain.NewSnowflakeFromTime(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC))
	before := domain.NewSnowflakeFromTime(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))

	guild := domain.Guild{ID: 10, Name: "My: Guild"}
	channel := &domain.Channel{
		ID:       100,
		Kind:     domain.ChannelKindGuildText,
		Name:     "general",
		Position: 3,
		Parent: &domain.Channel{
			ID:       50,
			Kind:     domain.ChannelKindGuildCategory,
			Name:     "Text Channels",
			Position: 1,
		},
	}
	req := services.ExportRequest{After: after, Before: before}
	return services.NewExportContext(req, guild, channel, stubClient{}, nil, discardLogger())
}

func TestExpandPathTemplate(t *testing.T) {
	ec := templateContext()

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"идентификаторы", "%g/%t", "10/100"},
		{"имена с экранированием", "%G - %T", "My_ Guild - general"},
		{"категория", "%C [%c]", "Text Channels [50]"},
		{"позиции", "%P.%p", "1.3"},
		{"границы диапазона", "%a..%b", "2024-01-05..2024-02-10"},
		{"литеральный процент", "100%%", "100%"},
		{"неизвестный токен остается как есть", "%x", "%x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPathTemplate(tt.template, ec))
		})
	}
}

func TestResolveOutputPath(t *testing.T) {
	ec := templateContext()

	t.Run("каталог получает имя по умолчанию с диапазоном", func(t *testing.T) {
		got := ResolveOutputPath("", FormatHTMLDark, ec)
		assert.Equal(t, "My_ Guild - Text Channels - general [100] (2024-01-05 to 2024-02-10).html", got)
	})

	t.Run("существующий каталог распознается без завершающего слеша", func(t *testing.T) {
		dir := t.TempDir()
		got := ResolveOutputPath(dir, FormatPlainText, ec)
		assert.Equal(t, dir, filepath.Dir(got))
		assert.Equal(t, "My_ Guild - Text Channels - general [100] (2024-01-05 to 2024-02-10).txt", filepath.Base(got))
	})

	t.Run("односторонние границы попадают в имя по отдельности", func(t *testing.T) {
		onlyAfter := templateContext()
		onlyAfter.Request.Before = 0
		got := ResolveOutputPath("", FormatJSON, onlyAfter)
		assert.Equal(t, "My_ Guild - Text Channels - general [100] (after 2024-01-05).json", got)

		onlyBefore := templateContext()
		onlyBefore.Request.After = 0
		got = ResolveOutputPath("", FormatJSON, onlyBefore)
		assert.Equal(t, "My_ Guild - Text Channels - general [100] (before 2024-02-10).json", got)
	})

	t.Run("без границ имя остается без суффикса диапазона", func(t *testing.T) {
		plain := templateContext()
		plain.Request.After, plain.Request.Before = 0, 0
		got := ResolveOutputPath("", FormatJSON, plain)
		assert.Equal(t, "My_ Guild - Text Channels - general [100].json", got)
	})

	t.Run("явное расширение сохраняется", func(t *testing.T) {
		got := ResolveOutputPath("export.dat", FormatJSON, ec)
		assert.Equal(t, "export.dat", got)
	})
}

func TestDefaultAssetsDirPath(t *testing.T) {
	assert.Equal(t, "exports/general [100]_Files", DefaultAssetsDirPath("exports/general [100].html"))
	assert.Equal(t, "out_Files", DefaultAssetsDirPath("out"))
}

func TestPartitionPath(t *testing.T) {
	assert.Equal(t, "out.txt", partitionPath("out.txt", 0))
	assert.Equal(t, "out [part 2].txt", partitionPath("out.txt", 1))
	assert.Equal(t, "out [part 10].txt", partitionPath("out.txt", 9))
}

func TestParsePartitionLimit(t *testing.T) {
	t.Run("пустая строка отключает секционирование", func(t *testing.T) {
		limit, err := ParsePartitionLimit("")
		require.NoError(t, err)
		assert.False(t, limit.IsReached(1<<40, 1<<40))
	})

	t.Run("целое число задает предел в сообщениях", func(t *testing.T) {
		limit, err := ParsePartitionLimit("100")
		require.NoError(t, err)
		assert.False(t, limit.IsReached(99, 1<<40))
		assert.True(t, limit.IsReached(100, 0))
	})

	t.Run("число с единицей задает предел в байтах", func(t *testing.T) {
		limit, err := ParsePartitionLimit("10mb")
		require.NoError(t, err)
		assert.False(t, limit.IsReached(1<<40, 9_999_999))
		assert.True(t, limit.IsReached(0, 10_000_000))
	})

	t.Run("мусор и нулевые пределы отклоняются", func(t *testing.T) {
		for _, s := range []string{"abc", "0", "-5", "0b"} {
			_, err := ParsePartitionLimit(s)
			assert.Error(t, err, s)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatPlainText},
		{"PlainText", FormatPlainText},
		{"txt", FormatPlainText},
		{"HtmlDark", FormatHTMLDark},
		{"htmllight", FormatHTMLLight},
		{"CSV", FormatCSV},
		{"json", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)

	assert.Equal(t, ".html", FormatHTMLLight.Extension())
	assert.Equal(t, ".json", FormatJSON.Extension())
	assert.Equal(t, "HtmlDark", FormatHTMLDark.String())
}
