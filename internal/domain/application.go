package domain

import (
	"encoding/json"
	"fmt"
)

// Флаги приложения, отвечающие за привилегированный intent
// на содержимое сообщений.
const (
	applicationFlagMessageContent        = 1 << 18
	applicationFlagMessageContentLimited = 1 << 19
)

// Application — приложение, которому принадлежит бот-токен.
type Application struct {
	ID    Snowflake
	Name  string
	Flags uint64
}

// IsMessageContentIntentEnabled сообщает, разрешено ли приложению читать
// содержимое сообщений. Без этого intent API отдает сообщения с пустым текстом.
func (a Application) IsMessageContentIntentEnabled() bool {
	return a.Flags&(applicationFlagMessageContent|applicationFlagMessageContentLimited) != 0
}

// applicationWire — формат приложения на проводе.
type applicationWire struct {
	ID    Snowflake `json:"id"`
	Name  string    `json:"name"`
	Flags uint64    `json:"flags"`
}

// ParseApplication разбирает приложение из JSON API.
func ParseApplication(data []byte) (Application, error) {
	var w applicationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Application{}, fmt.Errorf("failed to parse application: %w", err)
	}
	return Application{ID: w.ID, Name: w.Name, Flags: w.Flags}, nil
}

// Invite — приглашение на сервер.
type Invite struct {
	Code        string
	GuildID     Snowflake
	GuildName   string
	ChannelID   Snowflake
	ChannelName string
}

// inviteWire — формат приглашения на проводе.
type inviteWire struct {
	Code  string `json:"code"`
	Guild *struct {
		ID   Snowflake `json:"id"`
		Name string    `json:"name"`
	} `json:"guild"`
	Channel *struct {
		ID   Snowflake `json:"id"`
		Name string    `json:"name"`
	} `json:"channel"`
}

// ParseInvite разбирает приглашение из JSON API.
func ParseInvite(data []byte) (Invite, error) {
	var w inviteWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Invite{}, fmt.Errorf("failed to parse invite: %w", err)
	}

	inv := Invite{Code: w.Code}
	if w.Guild != nil {
		inv.GuildID = w.Guild.ID
		inv.GuildName = w.Guild.Name
	}
	if w.Channel != nil {
		inv.ChannelID = w.Channel.ID
		inv.ChannelName = w.Channel.Name
	}
	return inv, nil
}
