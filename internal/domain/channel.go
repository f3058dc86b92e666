package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChannelKind — тип канала, числовые коды протокола Discord.
type ChannelKind int

const (
	ChannelKindGuildText     ChannelKind = 0
	ChannelKindDirect        ChannelKind = 1
	ChannelKindGuildVoice    ChannelKind = 2
	ChannelKindDirectGroup   ChannelKind = 3
	ChannelKindGuildCategory ChannelKind = 4
	ChannelKindGuildNews     ChannelKind = 5
	ChannelKindNewsThread    ChannelKind = 10
	ChannelKindPublicThread  ChannelKind = 11
	ChannelKindPrivateThread ChannelKind = 12
	ChannelKindGuildStage    ChannelKind = 13
	ChannelKindGuildForum    ChannelKind = 15
)

// IsDirect сообщает, является ли канал личной перепиской.
func (k ChannelKind) IsDirect() bool {
	return k == ChannelKindDirect || k == ChannelKindDirectGroup
}

// IsGuild сообщает, принадлежит ли канал гильдии.
func (k ChannelKind) IsGuild() bool {
	return !k.IsDirect()
}

// IsThread сообщает, является ли канал тредом.
func (k ChannelKind) IsThread() bool {
	return k == ChannelKindNewsThread || k == ChannelKindPublicThread || k == ChannelKindPrivateThread
}

// IsVoice сообщает, является ли канал голосовым.
func (k ChannelKind) IsVoice() bool {
	return k == ChannelKindGuildVoice || k == ChannelKindGuildStage
}

// String возвращает человекочитаемое имя типа канала.
func (k ChannelKind) String() string {
	switch k {
	case ChannelKindGuildText:
		return "GuildTextChat"
	case ChannelKindDirect:
		return "DirectTextChat"
	case ChannelKindGuildVoice:
		return "GuildVoiceChat"
	case ChannelKindDirectGroup:
		return "DirectGroupTextChat"
	case ChannelKindGuildCategory:
		return "GuildCategory"
	case ChannelKindGuildNews:
		return "GuildNews"
	case ChannelKindNewsThread:
		return "GuildNewsThread"
	case ChannelKindPublicThread:
		return "GuildPublicThread"
	case ChannelKindPrivateThread:
		return "GuildPrivateThread"
	case ChannelKindGuildStage:
		return "GuildStageVoice"
	case ChannelKindGuildForum:
		return "GuildForum"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Channel — канал или тред.
// Поле Parent образует лес глубиной не более двух уровней:
// категория → канал → тред.
type Channel struct {
	ID       Snowflake
	Kind     ChannelKind
	GuildID  Snowflake
	ParentID Snowflake
	Parent   *Channel
	Name     string
	Position int
	Topic    string
	// IsArchived имеет смысл только для тредов.
	IsArchived bool
	// LastMessageID равен нулю, когда канал пуст.
	LastMessageID Snowflake
}

// IsEmpty сообщает, что в канале нет ни одного сообщения.
func (c *Channel) IsEmpty() bool {
	return c.LastMessageID.IsZero()
}

// MayHaveMessagesAfter сообщает, могут ли в канале быть сообщения после курсора.
func (c *Channel) MayHaveMessagesAfter(cursor Snowflake) bool {
	return !c.IsEmpty() && cursor < c.LastMessageID
}

// MayHaveMessagesBefore сообщает, могут ли в канале быть сообщения до курсора.
// Идентификатор канала всегда меньше идентификатора любого его сообщения.
func (c *Channel) MayHaveMessagesBefore(cursor Snowflake) bool {
	return !c.IsEmpty() && cursor > c.ID
}

// HierarchicalName возвращает имя с родителями, соединенными " / ".
func (c *Channel) HierarchicalName() string {
	var parts []string
	for cur := c; cur != nil; cur = cur.Parent {
		parts = append(parts, cur.Name)
	}
	// Родители идут от корня к листу.
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " / ")
}

// channelWire — формат канала на проводе.
type channelWire struct {
	ID            Snowflake  `json:"id"`
	Type          int        `json:"type"`
	GuildID       Snowflake  `json:"guild_id"`
	ParentID      Snowflake  `json:"parent_id"`
	Name          *string    `json:"name"`
	Position      *int       `json:"position"`
	Topic         *string    `json:"topic"`
	LastMessageID Snowflake  `json:"last_message_id"`
	Recipients    []userWire `json:"recipients"`
	ThreadMeta    *struct {
		Archived bool `json:"archived"`
	} `json:"thread_metadata"`
}

// ParseChannel разбирает канал из JSON API.
// Родительский канал подставляет вызывающая сторона по полю ParentID.
func ParseChannel(data []byte) (*Channel, error) {
	var w channelWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse channel: %w", err)
	}

	name := ""
	switch {
	case w.Name != nil && *w.Name != "":
		name = *w.Name
	case len(w.Recipients) > 0:
		// У личных переписок нет имени: берем имена получателей.
		names := make([]string, 0, len(w.Recipients))
		for _, r := range w.Recipients {
			names = append(names, userFromWire(r).DisplayName)
		}
		name = strings.Join(names, ", ")
	default:
		name = w.ID.String()
	}

	position := 0
	if w.Position != nil {
		position = *w.Position
	}
	topic := ""
	if w.Topic != nil {
		topic = *w.Topic
	}
	archived := false
	if w.ThreadMeta != nil {
		archived = w.ThreadMeta.Archived
	}

	return &Channel{
		ID:            w.ID,
		Kind:          ChannelKind(w.Type),
		GuildID:       w.GuildID,
		ParentID:      w.ParentID,
		Name:          name,
		Position:      position,
		Topic:         topic,
		IsArchived:    archived,
		LastMessageID: w.LastMessageID,
	}, nil
}
