package exporter

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/markdown"
)

// jsonWriter пишет выгрузку в JSON с полной схемой сообщения.
// Сообщения пишутся потоково, без накопления всего массива в памяти.
type jsonWriter struct {
	w        io.Writer
	ec       *services.ExportContext
	messages int64
}

func newJSONWriter(w io.Writer, ec *services.ExportContext) *jsonWriter {
	return &jsonWriter{w: w, ec: ec}
}

type jsonUser struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Discriminator string     `json:"discriminator"`
	Nickname      string     `json:"nickname"`
	Color         *string    `json:"color"`
	IsBot         bool       `json:"isBot"`
	Roles         []jsonRole `json:"roles"`
	AvatarURL     string     `json:"avatarUrl"`
}

type jsonRole struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Color    *string `json:"color"`
	Position int     `json:"position"`
}

type jsonAttachment struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	FileName      string `json:"fileName"`
	FileSizeBytes int64  `json:"fileSizeBytes"`
}

type jsonEmbedImage struct {
	URL    string `json:"url"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

type jsonEmbed struct {
	Title       string           `json:"title"`
	URL         string           `json:"url,omitempty"`
	Timestamp   *time.Time       `json:"timestamp,omitempty"`
	Description string           `json:"description"`
	Color       *string          `json:"color,omitempty"`
	Author      *jsonEmbedAuthor `json:"author,omitempty"`
	Thumbnail   *jsonEmbedImage  `json:"thumbnail,omitempty"`
	Images      []jsonEmbedImage `json:"images"`
	Fields      []jsonEmbedField `json:"fields"`
	Footer      *jsonEmbedFooter `json:"footer,omitempty"`
}

type jsonEmbedAuthor struct {
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"iconUrl,omitempty"`
}

type jsonEmbedField struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	IsInline bool   `json:"isInline"`
}

type jsonEmbedFooter struct {
	Text    string `json:"text"`
	IconURL string `json:"iconUrl,omitempty"`
}

type jsonSticker struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Format    string `json:"format"`
	SourceURL string `json:"sourceUrl"`
}

type jsonEmoji struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	IsAnimated bool   `json:"isAnimated"`
	ImageURL   string `json:"imageUrl"`
}

type jsonReaction struct {
	Emoji jsonEmoji  `json:"emoji"`
	Count int        `json:"count"`
	Users []jsonUser `json:"users"`
}

type jsonReference struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
	GuildID   string `json:"guildId"`
}

type jsonInteraction struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	User jsonUser `json:"user"`
}

type jsonMessage struct {
	ID                 string           `json:"id"`
	Type               string           `json:"type"`
	Timestamp          time.Time        `json:"timestamp"`
	TimestampEdited    *time.Time       `json:"timestampEdited"`
	CallEndedTimestamp *time.Time       `json:"callEndedTimestamp"`
	IsPinned           bool             `json:"isPinned"`
	Content            string           `json:"content"`
	Author             jsonUser         `json:"author"`
	Attachments        []jsonAttachment `json:"attachments"`
	Embeds             []jsonEmbed      `json:"embeds"`
	Stickers           []jsonSticker    `json:"stickers"`
	Reactions          []jsonReaction   `json:"reactions"`
	Mentions           []jsonUser       `json:"mentions"`
	InlineEmojis       []jsonEmoji      `json:"inlineEmojis"`
	Reference          *jsonReference   `json:"reference,omitempty"`
	Interaction        *jsonInteraction `json:"interaction,omitempty"`
}

func (j *jsonWriter) makeUser(u domain.User) jsonUser {
	out := jsonUser{
		ID:            u.ID.String(),
		Name:          u.Name,
		Discriminator: u.DiscriminatorFormatted(),
		Nickname:      u.DisplayName,
		IsBot:         u.IsBot,
		Roles:         []jsonRole{},
		AvatarURL:     u.AvatarURL,
	}
	if member := j.ec.TryGetMember(u.ID); member != nil {
		out.Nickname = member.DisplayName()
		out.AvatarURL = member.EffectiveAvatarURL()
		for _, role := range j.ec.TryGetUserRoles(u.ID) {
			out.Roles = append(out.Roles, makeJSONRole(role))
		}
	}
	if out.Nickname == "" {
		out.Nickname = u.Name
	}
	if color := j.ec.TryGetUserColor(u.ID); color != nil {
		hex := color.Hex()
		out.Color = &hex
	}
	return out
}

func makeJSONRole(role domain.Role) jsonRole {
	out := jsonRole{ID: role.ID.String(), Name: role.Name, Position: role.Position}
	if role.Color != nil {
		hex := role.Color.Hex()
		out.Color = &hex
	}
	return out
}

func makeJSONEmoji(e domain.Emoji) jsonEmoji {
	id := ""
	if e.IsCustom() {
		id = e.ID.String()
	}
	return jsonEmoji{
		ID:         id,
		Name:       e.Name,
		Code:       e.Code(),
		IsAnimated: e.IsAnimated,
		ImageURL:   e.ImageURL(),
	}
}

// collectInlineEmojis собирает эмодзи из разметки сообщения без дубликатов.
func collectInlineEmojis(content string) []jsonEmoji {
	nodes := markdown.Parse(content)
	seen := make(map[string]struct{})
	out := []jsonEmoji{}
	var walk func(nodes []markdown.Node)
	walk = func(nodes []markdown.Node) {
		for _, n := range nodes {
			switch v := n.(type) {
			case markdown.EmojiNode:
				key := v.ID.String() + "/" + v.Name
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				out = append(out, makeJSONEmoji(domain.Emoji{ID: v.ID, Name: v.Name, IsAnimated: v.IsAnimated}))
			case markdown.FormattingNode:
				walk(v.Children)
			case markdown.HeadingNode:
				walk(v.Children)
			case markdown.ListNode:
				for _, item := range v.Items {
					walk(item.Children)
				}
			case markdown.LinkNode:
				walk(v.Children)
			}
		}
	}
	walk(nodes)
	return out
}

func (j *jsonWriter) writeRaw(s string) error {
	_, err := io.WriteString(j.w, s)
	return err
}

func (j *jsonWriter) writePreamble(context.Context) error {
	channel := j.ec.Channel

	head := map[string]any{
		"id":      channel.ID.String(),
		"type":    channel.Kind.String(),
		"name":    channel.Name,
		"topic":   channel.Topic,
	}
	if parent := channel.Parent; parent != nil {
		head["categoryId"] = parent.ID.String()
		head["category"] = parent.Name
	}

	guild := map[string]any{
		"id":      j.ec.Guild.ID.String(),
		"name":    j.ec.Guild.Name,
		"iconUrl": j.ec.Guild.IconURL,
	}
	dateRange := map[string]any{"after": nil, "before": nil}
	if !j.ec.Request.After.IsZero() {
		dateRange["after"] = j.ec.Request.After.Time()
	}
	if !j.ec.Request.Before.IsZero() {
		dateRange["before"] = j.ec.Request.Before.Time()
	}

	for _, part := range []struct {
		key   string
		value any
	}{
		{"guild", guild},
		{"channel", head},
		{"dateRange", dateRange},
		{"exportedAt", time.Now().UTC()},
	} {
		raw, err := json.Marshal(part.value)
		if err != nil {
			return err
		}
		prefix := ","
		if part.key == "guild" {
			prefix = "{"
		}
		if err := j.writeRaw(prefix + "\n\"" + part.key + "\": " + string(raw)); err != nil {
			return err
		}
	}
	return j.writeRaw(",\n\"messages\": [")
}

func (j *jsonWriter) writeMessage(ctx context.Context, m *domain.Message) error {
	content := m.Content
	if m.IsSystemNotification() {
		content = m.GetFallbackContent()
	}

	out := jsonMessage{
		ID:                 m.ID.String(),
		Type:               m.Kind.String(),
		Timestamp:          m.Timestamp,
		TimestampEdited:    m.EditedTimestamp,
		CallEndedTimestamp: m.CallEndedTimestamp,
		IsPinned:           m.IsPinned,
		Content:            content,
		Author:             j.makeUser(m.Author),
		Attachments:        []jsonAttachment{},
		Embeds:             []jsonEmbed{},
		Stickers:           []jsonSticker{},
		Reactions:          []jsonReaction{},
		Mentions:           []jsonUser{},
		InlineEmojis:       collectInlineEmojis(m.Content),
	}

	for _, a := range m.Attachments {
		out.Attachments = append(out.Attachments, jsonAttachment{
			ID:            a.ID.String(),
			URL:           j.ec.ResolveAssetURL(ctx, a.URL),
			FileName:      a.FileName,
			FileSizeBytes: a.FileSizeBytes,
		})
	}
	for _, e := range m.Embeds {
		out.Embeds = append(out.Embeds, makeJSONEmbed(e))
	}
	for _, s := range m.Stickers {
		out.Stickers = append(out.Stickers, jsonSticker{
			ID:        s.ID.String(),
			Name:      s.Name,
			Format:    stickerFormatName(s.Format),
			SourceURL: j.ec.ResolveAssetURL(ctx, s.SourceURL()),
		})
	}
	for _, r := range m.Reactions {
		reaction := jsonReaction{Emoji: makeJSONEmoji(r.Emoji), Count: r.Count, Users: []jsonUser{}}
		for _, u := range j.ec.TryGetReactionUsers(ctx, m.ID, r.Emoji) {
			reaction.Users = append(reaction.Users, j.makeUser(u))
		}
		out.Reactions = append(out.Reactions, reaction)
	}
	for _, u := range m.MentionedUsers {
		out.Mentions = append(out.Mentions, j.makeUser(u))
	}
	if m.Reference != nil {
		out.Reference = &jsonReference{
			MessageID: m.Reference.MessageID.String(),
			ChannelID: m.Reference.ChannelID.String(),
			GuildID:   m.Reference.GuildID.String(),
		}
	}
	if m.Interaction != nil {
		out.Interaction = &jsonInteraction{
			ID:   m.Interaction.ID.String(),
			Name: m.Interaction.Name,
			User: j.makeUser(m.Interaction.User),
		}
	}

	raw, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	separator := ",\n"
	if j.messages == 0 {
		separator = "\n"
	}
	j.messages++
	return j.writeRaw(separator + string(raw))
}

func makeJSONEmbed(e domain.Embed) jsonEmbed {
	out := jsonEmbed{
		Title:       e.Title,
		URL:         e.URL,
		Timestamp:   e.Timestamp,
		Description: e.Description,
		Images:      []jsonEmbedImage{},
		Fields:      []jsonEmbedField{},
	}
	if e.Color != nil {
		hex := e.Color.Hex()
		out.Color = &hex
	}
	if e.Author != nil {
		out.Author = &jsonEmbedAuthor{Name: e.Author.Name, URL: e.Author.URL, IconURL: e.Author.IconURL}
	}
	if e.Thumbnail != nil {
		out.Thumbnail = &jsonEmbedImage{URL: e.Thumbnail.URL, Width: e.Thumbnail.Width, Height: e.Thumbnail.Height}
	}
	for _, img := range e.Images {
		out.Images = append(out.Images, jsonEmbedImage{URL: img.URL, Width: img.Width, Height: img.Height})
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, jsonEmbedField{Name: f.Name, Value: f.Value, IsInline: f.IsInline})
	}
	if e.Footer != nil {
		out.Footer = &jsonEmbedFooter{Text: e.Footer.Text, IconURL: e.Footer.IconURL}
	}
	return out
}

func stickerFormatName(f domain.StickerFormat) string {
	switch f {
	case domain.StickerFormatPNG:
		return "Png"
	case domain.StickerFormatAPNG:
		return "Apng"
	case domain.StickerFormatLottie:
		return "Lottie"
	case domain.StickerFormatGIF:
		return "Gif"
	default:
		return "Unknown"
	}
}

func (j *jsonWriter) writePostamble(context.Context) error {
	raw, err := json.Marshal(j.messages)
	if err != nil {
		return err
	}
	return j.writeRaw("\n],\n\"messageCount\": " + string(raw) + "\n}\n")
}

func (j *jsonWriter) flush() error { return nil }
