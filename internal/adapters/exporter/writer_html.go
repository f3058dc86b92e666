package exporter

import (
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

// messageGroupGap — максимальный разрыв между сообщениями одной группы.
const messageGroupGap = 7 * time.Minute

// htmlWriter пишет выгрузку в автономный HTML-файл с темной или
// светлой темой. Последовательные сообщения одного автора
// группируются под общим заголовком.
type htmlWriter struct {
	w        io.Writer
	ec       *services.ExportContext
	dark     bool
	messages int64

	lastAuthor     domain.Snowflake
	lastName       string
	lastTimestamp  time.Time
	lastStandalone bool
	groupOpen      bool
}

func newHTMLWriter(w io.Writer, ec *services.ExportContext, dark bool) *htmlWriter {
	return &htmlWriter{w: w, ec: ec, dark: dark}
}

func (h *htmlWriter) writeRaw(s string) error {
	_, err := io.WriteString(h.w, s)
	return err
}

func (h *htmlWriter) writef(format string, args ...any) error {
	_, err := fmt.Fprintf(h.w, format, args...)
	return err
}

const htmlStyles = `
html { font-size: 16px; }
body { margin: 0; padding: 2rem; font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; background: %s; color: %s; }
a { color: #00aff4; text-decoration: none; }
a:hover { text-decoration: underline; }
.preamble { display: flex; align-items: center; gap: 1rem; padding-bottom: 1rem; border-bottom: 1px solid %s; }
.preamble__icon { width: 4rem; height: 4rem; border-radius: 50%%; }
.preamble__title { font-size: 1.4rem; font-weight: 600; }
.preamble__subtitle { color: %s; }
.chatlog { padding-top: 1rem; }
.chatlog__group { display: flex; margin-bottom: 1rem; }
.chatlog__avatar { width: 2.5rem; height: 2.5rem; border-radius: 50%%; margin-right: 1rem; flex-shrink: 0; }
.chatlog__header { margin-bottom: 0.2rem; }
.chatlog__author { font-weight: 600; }
.chatlog__timestamp { margin-left: 0.4rem; font-size: 0.75rem; color: %s; }
.chatlog__message { padding: 0.1rem 0; word-wrap: break-word; }
.chatlog__reference { font-size: 0.85rem; opacity: 0.8; margin-bottom: 0.2rem; }
.chatlog__message--pinned { background: rgba(249, 168, 37, 0.08); }
.chatlog__edited { font-size: 0.7rem; color: %s; margin-left: 0.25rem; }
.chatlog__attachment { margin-top: 0.3rem; }
.chatlog__attachment img, .chatlog__attachment video { max-width: 30rem; max-height: 20rem; border-radius: 4px; }
.chatlog__embed { display: flex; margin-top: 0.3rem; max-width: 32rem; }
.chatlog__embed-color { width: 4px; border-radius: 4px 0 0 4px; background: #202225; flex-shrink: 0; }
.chatlog__embed-body { padding: 0.5rem 0.75rem; background: %s; border-radius: 0 4px 4px 0; flex-grow: 1; }
.chatlog__embed-title { font-weight: 600; margin-bottom: 0.25rem; }
.chatlog__embed-field-name { font-weight: 600; font-size: 0.875rem; }
.chatlog__reactions { margin-top: 0.3rem; }
.chatlog__reaction { display: inline-block; padding: 0.12rem 0.35rem; margin-right: 0.25rem; border-radius: 8px; background: %s; font-size: 0.85rem; }
.chatlog__sticker img { max-width: 10rem; max-height: 10rem; }
.mention { color: #7289da; background: rgba(114, 137, 218, 0.1); font-weight: 500; border-radius: 3px; padding: 0 2px; }
.timestamp { background: rgba(255, 255, 255, 0.06); border-radius: 3px; padding: 0 2px; }
.spoiler { border-radius: 3px; padding: 0 2px; }
.spoiler--hidden { background: #202225; color: transparent; cursor: pointer; }
.spoiler--hidden * { opacity: 0; }
.quote { border-left: 4px solid %s; padding-left: 0.5rem; margin: 0.1rem 0; }
.inline-code, .block-code { font-family: Consolas, "Courier New", monospace; background: %s; border-radius: 3px; }
.inline-code { padding: 0.1rem 0.25rem; font-size: 0.85rem; }
.block-code { padding: 0.5rem; display: block; overflow-x: auto; }
.emoji { width: 1.375rem; height: 1.375rem; vertical-align: middle; }
.chatlog__emoji--large { width: 3rem; height: 3rem; }
.postamble { padding-top: 1rem; border-top: 1px solid %s; color: %s; }
`

// stylePalette возвращает цвета темы в порядке подстановок htmlStyles.
func (h *htmlWriter) stylePalette() []any {
	if h.dark {
		return []any{
			"#36393e", "#dcddde", // фон и текст
			"#4f545c", "#b9bbbe", // разделитель и подзаголовок
			"#a3a6aa", "#a3a6aa", // метка времени и пометка редактирования
			"#2f3136", "#2f3136", // тело эмбеда и плашка реакции
			"#4f545c", "#2f3136", // цитата и код
			"#4f545c", "#b9bbbe", // разделитель и текст постамбулы
		}
	}
	return []any{
		"#ffffff", "#23262a",
		"#e3e5e8", "#5f6570",
		"#5f6570", "#5f6570",
		"#f2f3f5", "#f2f3f5",
		"#c7ccd1", "#f2f3f5",
		"#e3e5e8", "#5f6570",
	}
}

func (h *htmlWriter) writePreamble(ctx context.Context) error {
	title := html.EscapeString(h.ec.Guild.Name)
	subtitle := html.EscapeString(h.ec.Channel.HierarchicalName())

	if err := h.writeRaw("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n"); err != nil {
		return err
	}
	if err := h.writef("<title>%s - %s</title>\n", title, subtitle); err != nil {
		return err
	}
	if err := h.writef("<style>%s</style>\n</head>\n<body>\n", fmt.Sprintf(htmlStyles, h.stylePalette()...)); err != nil {
		return err
	}

	if err := h.writef(`<div class="preamble"><img class="preamble__icon" src="%s" alt=""><div><div class="preamble__title">%s</div><div class="preamble__subtitle">%s</div>`,
		html.EscapeString(h.ec.ResolveAssetURL(ctx, h.ec.Guild.IconURL)), title, subtitle); err != nil {
		return err
	}
	if topic := h.ec.Channel.Topic; topic != "" {
		if err := h.writef(`<div class="preamble__subtitle">%s</div>`, renderHTML(h.ec, topic, false)); err != nil {
			return err
		}
	}
	if dateRange := h.ec.FormatDateRange(); dateRange != "" {
		if err := h.writef(`<div class="preamble__subtitle">%s</div>`, html.EscapeString(dateRange)); err != nil {
			return err
		}
	}
	return h.writeRaw("</div></div>\n<div class=\"chatlog\">\n")
}

// renderedName возвращает имя автора так, как оно показано в заголовке
// группы: ник участника сервера, если он известен, иначе имя пользователя.
func (h *htmlWriter) renderedName(m *domain.Message) string {
	if member := h.ec.TryGetMember(m.Author.ID); member != nil {
		return member.DisplayName()
	}
	return m.Author.Name
}

// isStandalone сообщает, что сообщение не группируется с соседями:
// ответы и системные уведомления всегда открывают собственную группу.
func isStandalone(m *domain.Message) bool {
	return m.IsReplyLike() || m.IsSystemNotification()
}

// sameGroup сообщает, продолжает ли сообщение текущую группу.
// Группу продолжает только обычное сообщение того же автора с тем же
// отображаемым именем, идущее следом за обычным сообщением.
func (h *htmlWriter) sameGroup(m *domain.Message) bool {
	return h.groupOpen &&
		!isStandalone(m) &&
		!h.lastStandalone &&
		m.Author.ID == h.lastAuthor &&
		h.renderedName(m) == h.lastName &&
		m.Timestamp.Sub(h.lastTimestamp) <= messageGroupGap
}

func (h *htmlWriter) closeGroup() error {
	if !h.groupOpen {
		return nil
	}
	h.groupOpen = false
	return h.writeRaw("</div></div>\n")
}

func (h *htmlWriter) openGroup(ctx context.Context, m *domain.Message) error {
	name := h.renderedName(m)
	avatarURL := m.Author.AvatarURL
	if member := h.ec.TryGetMember(m.Author.ID); member != nil {
		avatarURL = member.EffectiveAvatarURL()
	}

	colorStyle := ""
	if color := h.ec.TryGetUserColor(m.Author.ID); color != nil {
		colorStyle = fmt.Sprintf(` style="color: %s"`, color.CSS())
	}

	if err := h.writef(`<div class="chatlog__group"><img class="chatlog__avatar" src="%s" alt=""><div class="chatlog__messages"><div class="chatlog__header"><span class="chatlog__author"%s title="%s">%s</span><span class="chatlog__timestamp">%s</span></div>`,
		html.EscapeString(h.ec.ResolveAssetURL(ctx, avatarURL)),
		colorStyle,
		html.EscapeString(m.Author.FullName()),
		html.EscapeString(name),
		html.EscapeString(h.ec.FormatDate(m.Timestamp, "f")),
	); err != nil {
		return err
	}
	h.groupOpen = true
	return nil
}

// writeReference пишет плашку ответа со ссылкой, прокручивающей
// страницу к исходному сообщению.
func (h *htmlWriter) writeReference(m *domain.Message) error {
	label := "Click to see original message"
	if ref := m.ReferencedMessage; ref != nil {
		label = h.renderedName(ref)
		if ref.Content != "" {
			label += ": " + ref.Content
		}
	}
	return h.writef(`<div class="chatlog__reference"><a href="#chatlog__message-%s" onclick="scrollToMessage(event, '%s')">%s</a></div>`,
		m.Reference.MessageID, m.Reference.MessageID, html.EscapeString(label))
}

func (h *htmlWriter) writeMessage(ctx context.Context, m *domain.Message) error {
	if !h.sameGroup(m) {
		if err := h.closeGroup(); err != nil {
			return err
		}
		if err := h.openGroup(ctx, m); err != nil {
			return err
		}
	}
	h.lastAuthor = m.Author.ID
	h.lastName = h.renderedName(m)
	h.lastTimestamp = m.Timestamp
	h.lastStandalone = isStandalone(m)

	class := "chatlog__message"
	if m.IsPinned {
		class += " chatlog__message--pinned"
	}
	if err := h.writef(`<div class="%s" id="chatlog__message-%s">`, class, m.ID); err != nil {
		return err
	}

	if m.Reference != nil {
		if err := h.writeReference(m); err != nil {
			return err
		}
	}

	if m.IsSystemNotification() {
		if err := h.writef("<em>%s</em>", html.EscapeString(m.GetFallbackContent())); err != nil {
			return err
		}
	} else if m.Content != "" {
		if err := h.writeRaw(renderHTML(h.ec, m.Content, true)); err != nil {
			return err
		}
		if m.EditedTimestamp != nil {
			if err := h.writef(`<span class="chatlog__edited" title="%s">(edited)</span>`,
				html.EscapeString(h.ec.FormatDate(*m.EditedTimestamp, "f"))); err != nil {
				return err
			}
		}
	}

	for _, a := range m.Attachments {
		if err := h.writeAttachment(ctx, a); err != nil {
			return err
		}
	}
	for _, e := range m.Embeds {
		if err := h.writeEmbed(ctx, e); err != nil {
			return err
		}
	}
	for _, s := range m.Stickers {
		if err := h.writef(`<div class="chatlog__sticker"><img src="%s" alt="%s" title="%s"></div>`,
			html.EscapeString(h.ec.ResolveAssetURL(ctx, s.SourceURL())),
			html.EscapeString(s.Name), html.EscapeString(s.Name)); err != nil {
			return err
		}
	}
	if len(m.Reactions) > 0 {
		if err := h.writeRaw(`<div class="chatlog__reactions">`); err != nil {
			return err
		}
		for _, r := range m.Reactions {
			var icon string
			if r.Emoji.IsCustom() || r.Emoji.ImageURL() != "" {
				icon = fmt.Sprintf(`<img class="emoji" src="%s" alt="%s">`,
					html.EscapeString(r.Emoji.ImageURL()), html.EscapeString(r.Emoji.Name))
			} else {
				icon = html.EscapeString(r.Emoji.Name)
			}
			if err := h.writef(`<span class="chatlog__reaction">%s %d</span>`, icon, r.Count); err != nil {
				return err
			}
		}
		if err := h.writeRaw("</div>"); err != nil {
			return err
		}
	}

	h.messages++
	return h.writeRaw("</div>")
}

func (h *htmlWriter) writeAttachment(ctx context.Context, a domain.Attachment) error {
	url := html.EscapeString(h.ec.ResolveAssetURL(ctx, a.URL))
	name := html.EscapeString(a.FileName)

	switch {
	case a.IsImage() && !a.IsSpoiler():
		return h.writef(`<div class="chatlog__attachment"><a href="%s"><img src="%s" alt="%s"></a></div>`, url, url, name)
	case a.IsVideo():
		return h.writef(`<div class="chatlog__attachment"><video controls src="%s"></video></div>`, url)
	case a.IsAudio():
		return h.writef(`<div class="chatlog__attachment"><audio controls src="%s"></audio></div>`, url)
	default:
		return h.writef(`<div class="chatlog__attachment"><a href="%s">%s</a></div>`, url, name)
	}
}

func (h *htmlWriter) writeEmbed(ctx context.Context, e domain.Embed) error {
	colorStyle := ""
	if e.Color != nil {
		colorStyle = fmt.Sprintf(` style="background: %s"`, e.Color.CSS())
	}
	if err := h.writef(`<div class="chatlog__embed"><div class="chatlog__embed-color"%s></div><div class="chatlog__embed-body">`, colorStyle); err != nil {
		return err
	}

	if e.Author != nil && e.Author.Name != "" {
		if err := h.writef(`<div class="chatlog__embed-field-name">%s</div>`, html.EscapeString(e.Author.Name)); err != nil {
			return err
		}
	}
	if e.Title != "" {
		title := renderHTML(h.ec, e.Title, false)
		if e.URL != "" {
			title = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(e.URL), title)
		}
		if err := h.writef(`<div class="chatlog__embed-title">%s</div>`, title); err != nil {
			return err
		}
	}
	if e.Description != "" {
		if err := h.writef("<div>%s</div>", renderHTML(h.ec, e.Description, false)); err != nil {
			return err
		}
	}
	for _, f := range e.Fields {
		if err := h.writef(`<div class="chatlog__embed-field-name">%s</div><div>%s</div>`,
			html.EscapeString(f.Name), renderHTML(h.ec, f.Value, false)); err != nil {
			return err
		}
	}
	for _, img := range e.Images {
		if err := h.writef(`<div class="chatlog__attachment"><img src="%s" alt=""></div>`,
			html.EscapeString(h.ec.ResolveAssetURL(ctx, img.URL))); err != nil {
			return err
		}
	}
	if e.Footer != nil && e.Footer.Text != "" {
		if err := h.writef(`<div class="chatlog__timestamp">%s</div>`, html.EscapeString(e.Footer.Text)); err != nil {
			return err
		}
	}
	return h.writeRaw("</div></div>")
}

func (h *htmlWriter) writePostamble(context.Context) error {
	if err := h.closeGroup(); err != nil {
		return err
	}
	if err := h.writef("</div>\n<div class=\"postamble\">Exported %d message(s)</div>\n", h.messages); err != nil {
		return err
	}
	if err := h.writef("<script>%s</script>\n", htmlScript); err != nil {
		return err
	}
	return h.writeRaw("</body>\n</html>\n")
}

const htmlScript = `
function showSpoiler(el) { el.classList.remove("spoiler--hidden"); }
function scrollToMessage(event, id) {
	var el = document.getElementById("chatlog__message-" + id);
	if (el) {
		event.preventDefault();
		el.scrollIntoView({ block: "center" });
	}
}
`

func (h *htmlWriter) flush() error { return nil }
