package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Guild — сервер Discord.
type Guild struct {
	ID      Snowflake
	Name    string
	IconURL string
}

// DirectMessagesGuild — гильдия-заглушка для личных сообщений:
// у них нет настоящей гильдии, но конвейеру экспорта она нужна.
var DirectMessagesGuild = Guild{
	ID:      0,
	Name:    "Direct Messages",
	IconURL: defaultAvatarURL(0, 0),
}

// guildWire — формат гильдии на проводе.
type guildWire struct {
	ID   Snowflake `json:"id"`
	Name string    `json:"name"`
	Icon *string   `json:"icon"`
}

// ParseGuild разбирает гильдию из JSON API.
func ParseGuild(data []byte) (Guild, error) {
	var w guildWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Guild{}, fmt.Errorf("failed to parse guild: %w", err)
	}

	iconURL := defaultAvatarURL(w.ID, 0)
	if w.Icon != nil && *w.Icon != "" {
		ext := "png"
		if strings.HasPrefix(*w.Icon, "a_") {
			ext = "gif"
		}
		iconURL = fmt.Sprintf("%s/icons/%s/%s.%s", cdnBaseURL, w.ID, *w.Icon, ext)
	}

	return Guild{ID: w.ID, Name: w.Name, IconURL: iconURL}, nil
}
