package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

// renderFormat прогоняет сообщения через писателя формата и возвращает
// результат целиком.
func renderFormat(t *testing.T, format Format, req services.ExportRequest, messages []*domain.Message) []byte {
	t.Helper()
	ctx := context.Background()

	var buf bytes.Buffer
	w, err := newFormatWriter(format, &buf, newTestContext(req))
	require.NoError(t, err)

	require.NoError(t, w.writePreamble(ctx))
	for _, m := range messages {
		require.NoError(t, w.writeMessage(ctx, m))
	}
	require.NoError(t, w.writePostamble(ctx))
	require.NoError(t, w.flush())
	return buf.Bytes()
}

func TestPlainTextWriter(t *testing.T) {
	first := makeMessage(1, "alice", "hello world")
	first.IsPinned = true
	second := makeMessage(2, "bob", "see attachment")
	second.Attachments = []domain.Attachment{{ID: 1, URL: "https://cdn.example/file.png", FileName: "file.png"}}
	second.Reactions = []domain.Reaction{{Emoji: domain.Emoji{Name: "👍"}, Count: 3}}

	out := string(renderFormat(t, FormatPlainText, services.ExportRequest{}, []*domain.Message{first, second}))

	assert.Contains(t, out, "Guild: Test Guild")
	assert.Contains(t, out, "Channel: general")
	assert.Contains(t, out, "alice (pinned)")
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "{Attachments}")
	assert.Contains(t, out, "https://cdn.example/file.png")
	assert.Contains(t, out, "{Reactions}")
	assert.Contains(t, out, "👍 (3)")
	assert.Contains(t, out, "Exported 2 message(s)")
}

func TestCSVWriter(t *testing.T) {
	messages := []*domain.Message{
		makeMessage(1, "alice", "first, with a comma"),
		makeMessage(2, "bob", "second"),
	}

	out := renderFormat(t, FormatCSV, services.ExportRequest{}, messages)

	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))

	rows, err := csv.NewReader(bytes.NewReader(out[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"AuthorID", "Author", "Date", "Content", "Attachments", "Reactions"}, rows[0])
	assert.Equal(t, "alice", rows[1][1])
	assert.Equal(t, "first, with a comma", rows[1][3])
	assert.Equal(t, "bob", rows[2][1])
}

func TestJSONWriter(t *testing.T) {
	reply := makeMessage(2, "bob", "agreed")
	reply.Kind = domain.MessageKindReply
	reply.Reference = &domain.MessageReference{MessageID: 1 << 22, ChannelID: 100}

	slash := makeMessage(3, "roll-bot", "you rolled 4")
	slash.Interaction = &domain.Interaction{
		ID:   6 << 22,
		Name: "roll",
		User: domain.User{ID: 1005, Name: "alice", DisplayName: "alice"},
	}

	out := renderFormat(t, FormatJSON, services.ExportRequest{}, []*domain.Message{
		makeMessage(1, "alice", "hello"),
		reply,
		slash,
	})

	var doc struct {
		Guild struct {
			Name string `json:"name"`
		} `json:"guild"`
		Channel struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"channel"`
		Messages []struct {
			ID      string `json:"id"`
			Type    string `json:"type"`
			Content string `json:"content"`
			Author  struct {
				Name string `json:"name"`
			} `json:"author"`
			Reference *struct {
				MessageID string `json:"messageId"`
			} `json:"reference"`
			Interaction *struct {
				Name string `json:"name"`
				User struct {
					Name string `json:"name"`
				} `json:"user"`
			} `json:"interaction"`
		} `json:"messages"`
		MessageCount int `json:"messageCount"`
	}
	require.NoError(t, json.Unmarshal(out, &doc), "писатель обязан выдавать валидный JSON")

	assert.Equal(t, "Test Guild", doc.Guild.Name)
	assert.Equal(t, "100", doc.Channel.ID)
	assert.Equal(t, 3, doc.MessageCount)
	require.Len(t, doc.Messages, 3)
	assert.Equal(t, "hello", doc.Messages[0].Content)
	assert.Equal(t, "alice", doc.Messages[0].Author.Name)
	require.NotNil(t, doc.Messages[1].Reference)
	assert.Equal(t, domain.Snowflake(1<<22).String(), doc.Messages[1].Reference.MessageID)
	require.NotNil(t, doc.Messages[2].Interaction)
	assert.Equal(t, "roll", doc.Messages[2].Interaction.Name)
	assert.Equal(t, "alice", doc.Messages[2].Interaction.User.Name)
}

func TestHTMLWriter(t *testing.T) {
	t.Run("подряд идущие сообщения автора склеиваются в группу", func(t *testing.T) {
		messages := []*domain.Message{
			makeMessage(1, "alice", "one"),
			makeMessage(2, "alice", "two"),
			makeMessage(3, "bob", "three"),
		}

		out := string(renderFormat(t, FormatHTMLDark, services.ExportRequest{}, messages))

		assert.Equal(t, 2, strings.Count(out, `<div class="chatlog__group">`))
		assert.Contains(t, out, "Exported 3 message(s)")
	})

	t.Run("ответ не продолжает группу и не начинает ее для следующих", func(t *testing.T) {
		reply := makeMessage(1, "alice", "replying")
		reply.Kind = domain.MessageKindReply
		reply.Reference = &domain.MessageReference{MessageID: 5 << 22, ChannelID: 100}
		plain := makeMessage(2, "alice", "a minute later")

		out := string(renderFormat(t, FormatHTMLDark, services.ExportRequest{}, []*domain.Message{reply, plain}))

		assert.Equal(t, 2, strings.Count(out, `<div class="chatlog__group">`))
		assert.Contains(t, out, `scrollToMessage(event, '`+domain.Snowflake(5<<22).String()+`')`)
	})

	t.Run("смена отображаемого имени открывает новую группу", func(t *testing.T) {
		first := makeMessage(1, "alice", "old name")
		second := makeMessage(2, "alice", "new name")
		second.Author.Name = "alice2"
		second.Author.ID = first.Author.ID

		out := string(renderFormat(t, FormatHTMLDark, services.ExportRequest{}, []*domain.Message{first, second}))

		assert.Equal(t, 2, strings.Count(out, `<div class="chatlog__group">`))
	})

	t.Run("большой разрыв по времени открывает новую группу", func(t *testing.T) {
		messages := []*domain.Message{
			makeMessage(1, "alice", "one"),
			makeMessage(30, "alice", "half an hour later"),
		}

		out := string(renderFormat(t, FormatHTMLDark, services.ExportRequest{}, messages))

		assert.Equal(t, 2, strings.Count(out, `<div class="chatlog__group">`))
	})

	t.Run("разметка форматируется при включенном маркдауне", func(t *testing.T) {
		messages := []*domain.Message{makeMessage(1, "alice", "**bold** and `code`")}

		req := services.ExportRequest{ShouldFormatMarkdown: true}
		out := string(renderFormat(t, FormatHTMLLight, req, messages))

		assert.Contains(t, out, "<strong>bold</strong>")
		assert.Contains(t, out, "code</code>")
	})

	t.Run("страница содержит обработчики спойлеров и переходов", func(t *testing.T) {
		messages := []*domain.Message{makeMessage(1, "alice", "||secret||")}

		req := services.ExportRequest{ShouldFormatMarkdown: true}
		out := string(renderFormat(t, FormatHTMLDark, req, messages))

		assert.Contains(t, out, "function showSpoiler")
		assert.Contains(t, out, "function scrollToMessage")
		assert.Contains(t, out, `onclick="showSpoiler(this)"`)
	})

	t.Run("сообщение из одних эмодзи получает увеличенный класс", func(t *testing.T) {
		messages := []*domain.Message{makeMessage(1, "alice", "<:wave:555>")}

		req := services.ExportRequest{ShouldFormatMarkdown: true}
		out := string(renderFormat(t, FormatHTMLDark, req, messages))

		assert.Contains(t, out, "chatlog__emoji--large")
	})

	t.Run("темная и светлая палитры различаются", func(t *testing.T) {
		messages := []*domain.Message{makeMessage(1, "alice", "hi")}

		dark := string(renderFormat(t, FormatHTMLDark, services.ExportRequest{}, messages))
		light := string(renderFormat(t, FormatHTMLLight, services.ExportRequest{}, messages))

		assert.NotEqual(t, dark, light)
	})
}
