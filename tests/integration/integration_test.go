package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-chat-archiver/internal/adapters/exporter"
	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/discord"
	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/filter"
	"discord-chat-archiver/internal/server/usecase"
)

// newMockDiscordAPI поднимает HTTP-сервер, эмулирующий нужный срез
// API Discord: одна гильдия, один текстовый канал, totalMessages
// сообщений с идентификаторами 1..totalMessages.
func newMockDiscordAPI(t *testing.T, totalMessages int) *httptest.Server {
	t.Helper()

	wireMessage := func(n int) string {
		return fmt.Sprintf(`{
			"id": "%d",
			"type": 0,
			"content": "message %d",
			"timestamp": "2024-01-15T10:00:00+00:00",
			"author": {"id": "1", "username": "tester", "discriminator": "0"}
		}`, uint64(n)<<22, n)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/@me", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Header.Get("Authorization"), "Bot ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id": "1", "username": "tester", "discriminator": "0"}`))
	})
	mux.HandleFunc("/guilds/10", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": "10", "name": "Test Guild"}`))
	})
	channelJSON := fmt.Sprintf(`{"id": "100", "type": 0, "guild_id": "10", "name": "general", "position": 0, "last_message_id": "%d"}`,
		uint64(totalMessages)<<22)
	mux.HandleFunc("/guilds/10/channels", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[" + channelJSON + "]"))
	})
	mux.HandleFunc("/guilds/10/roles", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})
	mux.HandleFunc("/channels/100", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(channelJSON))
	})
	mux.HandleFunc("/channels/100/messages", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		after, _ := strconv.ParseUint(r.URL.Query().Get("after"), 10, 64)

		lo := int(after>>22) + 1
		hi := totalMessages
		if hi-lo+1 > limit {
			hi = lo + limit - 1
		}

		var page []string
		for n := hi; n >= lo; n-- {
			page = append(page, wireMessage(n))
		}
		_, _ = w.Write([]byte("[" + strings.Join(page, ",") + "]"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// Интеграционный тест прогоняет полный цикл: аутентификация клиента,
// постраничная загрузка сообщений и запись файлов выгрузки на диск.
func TestFullExportFlow(t *testing.T) {
	srv := newMockDiscordAPI(t, 250)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := discord.NewClient(context.Background(), "secret",
		discord.WithBaseURL(srv.URL),
		discord.WithHTTPClient(srv.Client()),
		discord.WithRateLimitPreference(discord.IgnoreAll),
		discord.WithLogger(logger),
	)
	require.NoError(t, err)

	exportSvc := services.NewExportService(client, exporter.NewFactory(logger),
		services.WithExportLogger(logger))
	runner := usecase.NewExportChannelsUseCase(exportSvc, 2, logger)

	outDir := t.TempDir()
	baseReq := services.ExportRequest{
		ChannelID:  100,
		OutputPath: outDir,
		Filter:     filter.Null,
		Locale:     "en-US",
	}

	jsonReq := baseReq
	jsonReq.Format = "json"
	textReq := baseReq
	textReq.Format = "plaintext"

	results, err := runner.ExportChannels(context.Background(), []services.ExportRequest{jsonReq, textReq})
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, res := range results {
		assert.Equal(t, int64(250), res.Messages)
		assert.Equal(t, "Test Guild", res.Guild.Name)
		require.Len(t, res.Files, 1)
	}

	t.Run("выгрузка в JSON", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "Test Guild - general [100].json"))
		require.NoError(t, err)

		var doc struct {
			Guild struct {
				Name string `json:"name"`
			} `json:"guild"`
			Messages     []json.RawMessage `json:"messages"`
			MessageCount int               `json:"messageCount"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		assert.Equal(t, "Test Guild", doc.Guild.Name)
		assert.Len(t, doc.Messages, 250)
		assert.Equal(t, 250, doc.MessageCount)
	})

	t.Run("выгрузка в плоский текст", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(outDir, "Test Guild - general [100].txt"))
		require.NoError(t, err)

		text := string(data)
		assert.Contains(t, text, "message 1")
		assert.Contains(t, text, "message 250")
		assert.Contains(t, text, "Exported 250 message(s)")
	})
}

// Граница after передается серверу и обрезает диапазон снизу.
func TestExportFlow_AfterBoundary(t *testing.T) {
	srv := newMockDiscordAPI(t, 20)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := discord.NewClient(context.Background(), "secret",
		discord.WithBaseURL(srv.URL),
		discord.WithHTTPClient(srv.Client()),
		discord.WithRateLimitPreference(discord.IgnoreAll),
		discord.WithLogger(logger),
	)
	require.NoError(t, err)

	exportSvc := services.NewExportService(client, exporter.NewFactory(logger),
		services.WithExportLogger(logger))

	outDir := t.TempDir()
	result, err := exportSvc.Export(context.Background(), services.ExportRequest{
		ChannelID:  100,
		After:      domain.Snowflake(uint64(15) << 22),
		Format:     "plaintext",
		OutputPath: outDir,
		Filter:     filter.Null,
		Locale:     "en-US",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Messages)
}
