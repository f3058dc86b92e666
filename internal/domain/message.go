package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MessageKind — тип сообщения, числовые коды протокола Discord.
// Коды 1..18 — системные уведомления: события сервера, а не текст пользователя.
type MessageKind int

const (
	MessageKindDefault                              MessageKind = 0
	MessageKindRecipientAdd                         MessageKind = 1
	MessageKindRecipientRemove                      MessageKind = 2
	MessageKindCall                                 MessageKind = 3
	MessageKindChannelNameChange                    MessageKind = 4
	MessageKindChannelIconChange                    MessageKind = 5
	MessageKindChannelPinnedMessage                 MessageKind = 6
	MessageKindGuildMemberJoin                      MessageKind = 7
	MessageKindGuildBoost                           MessageKind = 8
	MessageKindGuildBoostTier1                      MessageKind = 9
	MessageKindGuildBoostTier2                      MessageKind = 10
	MessageKindGuildBoostTier3                      MessageKind = 11
	MessageKindChannelFollowAdd                     MessageKind = 12
	MessageKindGuildDiscoveryDisqualified           MessageKind = 14
	MessageKindGuildDiscoveryRequalified            MessageKind = 15
	MessageKindGuildDiscoveryGracePeriodInitial     MessageKind = 16
	MessageKindGuildDiscoveryGracePeriodFinal       MessageKind = 17
	MessageKindThreadCreated                        MessageKind = 18
	MessageKindReply                                MessageKind = 19
	MessageKindChatInputCommand                     MessageKind = 20
	MessageKindThreadStarterMessage                 MessageKind = 21
	MessageKindGuildInviteReminder                  MessageKind = 22
	MessageKindContextMenuCommand                   MessageKind = 23
	MessageKindAutoModerationAction                 MessageKind = 24
	MessageKindRoleSubscriptionPurchase             MessageKind = 25
	MessageKindInteractionPremiumUpsell             MessageKind = 26
	MessageKindStageStart                           MessageKind = 27
	MessageKindStageEnd                             MessageKind = 28
	MessageKindStageSpeaker                         MessageKind = 29
	MessageKindStageTopic                           MessageKind = 31
	MessageKindGuildApplicationPremiumSubscription  MessageKind = 32
	MessageKindGuildIncidentAlertModeEnabled        MessageKind = 36
	MessageKindGuildIncidentAlertModeDisabled       MessageKind = 37
	MessageKindGuildIncidentReportRaid              MessageKind = 38
	MessageKindGuildIncidentReportFalseAlarm        MessageKind = 39
	MessageKindPurchaseNotification                 MessageKind = 44
	MessageKindPollResult                           MessageKind = 46
)

// messageKindNames — имена типов сообщений для текстовых форматов экспорта.
var messageKindNames = map[MessageKind]string{
	MessageKindDefault:                             "Default",
	MessageKindRecipientAdd:                        "RecipientAdd",
	MessageKindRecipientRemove:                     "RecipientRemove",
	MessageKindCall:                                "Call",
	MessageKindChannelNameChange:                   "ChannelNameChange",
	MessageKindChannelIconChange:                   "ChannelIconChange",
	MessageKindChannelPinnedMessage:                "ChannelPinnedMessage",
	MessageKindGuildMemberJoin:                     "GuildMemberJoin",
	MessageKindGuildBoost:                          "GuildBoost",
	MessageKindGuildBoostTier1:                     "GuildBoostTier1",
	MessageKindGuildBoostTier2:                     "GuildBoostTier2",
	MessageKindGuildBoostTier3:                     "GuildBoostTier3",
	MessageKindChannelFollowAdd:                    "ChannelFollowAdd",
	MessageKindGuildDiscoveryDisqualified:          "GuildDiscoveryDisqualified",
	MessageKindGuildDiscoveryRequalified:           "GuildDiscoveryRequalified",
	MessageKindGuildDiscoveryGracePeriodInitial:    "GuildDiscoveryGracePeriodInitial",
	MessageKindGuildDiscoveryGracePeriodFinal:      "GuildDiscoveryGracePeriodFinal",
	MessageKindThreadCreated:                       "ThreadCreated",
	MessageKindReply:                               "Reply",
	MessageKindChatInputCommand:                    "ChatInputCommand",
	MessageKindThreadStarterMessage:                "ThreadStarterMessage",
	MessageKindGuildInviteReminder:                 "GuildInviteReminder",
	MessageKindContextMenuCommand:                  "ContextMenuCommand",
	MessageKindAutoModerationAction:                "AutoModerationAction",
	MessageKindRoleSubscriptionPurchase:            "RoleSubscriptionPurchase",
	MessageKindInteractionPremiumUpsell:            "InteractionPremiumUpsell",
	MessageKindStageStart:                          "StageStart",
	MessageKindStageEnd:                            "StageEnd",
	MessageKindStageSpeaker:                        "StageSpeaker",
	MessageKindStageTopic:                          "StageTopic",
	MessageKindGuildApplicationPremiumSubscription: "GuildApplicationPremiumSubscription",
	MessageKindGuildIncidentAlertModeEnabled:       "GuildIncidentAlertModeEnabled",
	MessageKindGuildIncidentAlertModeDisabled:      "GuildIncidentAlertModeDisabled",
	MessageKindGuildIncidentReportRaid:             "GuildIncidentReportRaid",
	MessageKindGuildIncidentReportFalseAlarm:       "GuildIncidentReportFalseAlarm",
	MessageKindPurchaseNotification:                "PurchaseNotification",
	MessageKindPollResult:                          "PollResult",
}

// String возвращает имя типа сообщения.
func (k MessageKind) String() string {
	if name, ok := messageKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(k))
}

// MessageFlags — битовая маска флагов сообщения.
type MessageFlags uint64

// MessageReference — ссылка на сообщение, на которое дан ответ.
type MessageReference struct {
	MessageID Snowflake
	ChannelID Snowflake
	GuildID   Snowflake
}

// Interaction — команда приложения, породившая сообщение.
type Interaction struct {
	ID   Snowflake
	Name string
	User User
}

// Message — одно сообщение канала. Значение неизменяемо после разбора.
type Message struct {
	ID                 Snowflake
	Kind               MessageKind
	Flags              MessageFlags
	Author             User
	Timestamp          time.Time
	EditedTimestamp    *time.Time
	CallEndedTimestamp *time.Time
	IsPinned           bool
	Content            string
	Attachments        []Attachment
	Embeds             []Embed
	Stickers           []Sticker
	Reactions          []Reaction
	MentionedUsers     []User
	Reference          *MessageReference
	// ReferencedMessage — материализованный родитель ответа.
	// API встраивает только прямого родителя, глубже цепочка не строится.
	ReferencedMessage *Message
	Interaction       *Interaction
}

// IsSystemNotification сообщает, что сообщение — системное уведомление.
func (m *Message) IsSystemNotification() bool {
	return m.Kind >= 1 && m.Kind <= 18
}

// IsReply сообщает, что сообщение — ответ на другое сообщение.
func (m *Message) IsReply() bool {
	return m.Kind == MessageKindReply
}

// IsReplyLike сообщает, что сообщение отображается с плашкой ссылки:
// либо ответ, либо результат команды приложения.
func (m *Message) IsReplyLike() bool {
	return m.IsReply() || m.Interaction != nil
}

// IsEmpty сообщает, что у сообщения нет ни текста, ни вложений.
// Пустые сообщения не отбрасываются: у них все равно выводится заголовок.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == "" &&
		len(m.Attachments) == 0 && len(m.Embeds) == 0 && len(m.Stickers) == 0
}

// GetFallbackContent возвращает текст-заменитель для системных уведомлений,
// у которых поле content пустое по протоколу.
func (m *Message) GetFallbackContent() string {
	name := m.Author.DisplayName
	switch m.Kind {
	case MessageKindRecipientAdd:
		return name + " added a recipient."
	case MessageKindRecipientRemove:
		return name + " removed a recipient."
	case MessageKindCall:
		return name + " started a call."
	case MessageKindChannelNameChange:
		return name + " changed the channel name: " + m.Content
	case MessageKindChannelIconChange:
		return name + " changed the channel icon."
	case MessageKindChannelPinnedMessage:
		return name + " pinned a message."
	case MessageKindGuildMemberJoin:
		return name + " joined the server."
	case MessageKindGuildBoost:
		return name + " boosted the server!"
	case MessageKindGuildBoostTier1:
		return name + " boosted the server! The server has achieved level 1!"
	case MessageKindGuildBoostTier2:
		return name + " boosted the server! The server has achieved level 2!"
	case MessageKindGuildBoostTier3:
		return name + " boosted the server! The server has achieved level 3!"
	case MessageKindChannelFollowAdd:
		return name + " has added " + m.Content + " to this channel."
	case MessageKindThreadCreated:
		return name + " started a thread: " + m.Content
	default:
		return m.Content
	}
}

// GetReferencedUsers возвращает всех пользователей, упомянутых сообщением:
// автора, адресатов упоминаний, автора родительского сообщения и инициатора
// команды. Список может содержать дубликаты, дедупликация — на вызывающей стороне.
func (m *Message) GetReferencedUsers() []User {
	users := make([]User, 0, len(m.MentionedUsers)+3)
	users = append(users, m.Author)
	users = append(users, m.MentionedUsers...)
	if m.ReferencedMessage != nil {
		users = append(users, m.ReferencedMessage.Author)
	}
	if m.Interaction != nil {
		users = append(users, m.Interaction.User)
	}
	return users
}

// messageWire — формат сообщения на проводе.
type messageWire struct {
	ID              Snowflake        `json:"id"`
	Type            int              `json:"type"`
	Flags           uint64           `json:"flags"`
	Author          userWire         `json:"author"`
	Timestamp       string           `json:"timestamp"`
	EditedTimestamp *string          `json:"edited_timestamp"`
	Pinned          bool             `json:"pinned"`
	Content         string           `json:"content"`
	Attachments     []attachmentWire `json:"attachments"`
	Embeds          []embedWire      `json:"embeds"`
	StickerItems    []stickerWire    `json:"sticker_items"`
	Reactions       []reactionWire   `json:"reactions"`
	Mentions        []userWire       `json:"mentions"`
	Call            *struct {
		EndedTimestamp *string `json:"ended_timestamp"`
	} `json:"call"`
	MessageReference *struct {
		MessageID Snowflake `json:"message_id"`
		ChannelID Snowflake `json:"channel_id"`
		GuildID   Snowflake `json:"guild_id"`
	} `json:"message_reference"`
	ReferencedMessage *messageWire `json:"referenced_message"`
	Interaction       *struct {
		ID   Snowflake `json:"id"`
		Name string    `json:"name"`
		User userWire  `json:"user"`
	} `json:"interaction"`
}

// ParseMessage разбирает сообщение из JSON API.
func ParseMessage(data []byte) (Message, error) {
	var w messageWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, fmt.Errorf("failed to parse message: %w", err)
	}
	return messageFromWire(&w)
}

func messageFromWire(w *messageWire) (Message, error) {
	timestamp, err := time.Parse(time.RFC3339, w.Timestamp)
	if err != nil {
		return Message{}, fmt.Errorf("message %s has invalid timestamp %q: %w", w.ID, w.Timestamp, err)
	}

	m := Message{
		ID:        w.ID,
		Kind:      MessageKind(w.Type),
		Flags:     MessageFlags(w.Flags),
		Author:    userFromWire(w.Author),
		Timestamp: timestamp.UTC(),
		IsPinned:  w.Pinned,
		Content:   w.Content,
	}

	if w.EditedTimestamp != nil {
		if t, err := time.Parse(time.RFC3339, *w.EditedTimestamp); err == nil {
			t = t.UTC()
			m.EditedTimestamp = &t
		}
	}
	if w.Call != nil && w.Call.EndedTimestamp != nil {
		if t, err := time.Parse(time.RFC3339, *w.Call.EndedTimestamp); err == nil {
			t = t.UTC()
			m.CallEndedTimestamp = &t
		}
	}

	for _, a := range w.Attachments {
		m.Attachments = append(m.Attachments, attachmentFromWire(a))
	}

	embeds := make([]Embed, 0, len(w.Embeds))
	for _, e := range w.Embeds {
		embeds = append(embeds, embedFromWire(e))
	}
	m.Embeds = NormalizeEmbeds(embeds)

	for _, s := range w.StickerItems {
		m.Stickers = append(m.Stickers, stickerFromWire(s))
	}
	for _, r := range w.Reactions {
		m.Reactions = append(m.Reactions, reactionFromWire(r))
	}
	for _, u := range w.Mentions {
		m.MentionedUsers = append(m.MentionedUsers, userFromWire(u))
	}

	if w.MessageReference != nil {
		m.Reference = &MessageReference{
			MessageID: w.MessageReference.MessageID,
			ChannelID: w.MessageReference.ChannelID,
			GuildID:   w.MessageReference.GuildID,
		}
	}
	if w.ReferencedMessage != nil {
		// Глубина цепочки ответов — ровно один уровень.
		parent, err := messageFromWire(w.ReferencedMessage)
		if err != nil {
			return Message{}, fmt.Errorf("failed to parse referenced message: %w", err)
		}
		m.ReferencedMessage = &parent
	}
	if w.Interaction != nil {
		m.Interaction = &Interaction{
			ID:   w.Interaction.ID,
			Name: w.Interaction.Name,
			User: userFromWire(w.Interaction.User),
		}
	}

	return m, nil
}
