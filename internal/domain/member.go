package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Member — участник в контексте конкретной гильдии: с никнеймом,
// ролями и, возможно, отдельным аватаром.
type Member struct {
	User    User
	GuildID Snowflake
	// Nick — никнейм в гильдии; пустая строка, если не задан.
	Nick    string
	RoleIDs []Snowflake
	// AvatarURL перекрывает глобальный аватар пользователя; пустая строка,
	// если перекрытие не задано.
	AvatarURL string
}

// MemberOfUser синтезирует участника-заглушку для пользователя,
// покинувшего гильдию.
func MemberOfUser(u User) Member {
	return Member{User: u}
}

// DisplayName возвращает имя для отображения: никнейм, затем глобальное имя.
func (m Member) DisplayName() string {
	if m.Nick != "" {
		return m.Nick
	}
	return m.User.DisplayName
}

// EffectiveAvatarURL возвращает аватар с учетом перекрытия в гильдии.
func (m Member) EffectiveAvatarURL() string {
	if m.AvatarURL != "" {
		return m.AvatarURL
	}
	return m.User.AvatarURL
}

// memberWire — формат участника на проводе.
type memberWire struct {
	User   *userWire   `json:"user"`
	Nick   *string     `json:"nick"`
	Roles  []Snowflake `json:"roles"`
	Avatar *string     `json:"avatar"`
}

// ParseMember разбирает участника гильдии из JSON API.
func ParseMember(data []byte, guildID Snowflake) (Member, error) {
	var w memberWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Member{}, fmt.Errorf("failed to parse member: %w", err)
	}
	if w.User == nil {
		return Member{}, fmt.Errorf("member payload does not contain a user")
	}

	user := userFromWire(*w.User)

	nick := ""
	if w.Nick != nil {
		nick = *w.Nick
	}

	avatarURL := ""
	if w.Avatar != nil && *w.Avatar != "" {
		ext := "png"
		if strings.HasPrefix(*w.Avatar, "a_") {
			ext = "gif"
		}
		avatarURL = fmt.Sprintf("%s/guilds/%s/users/%s/avatars/%s.%s?size=512",
			cdnBaseURL, guildID, user.ID, *w.Avatar, ext)
	}

	return Member{
		User:      user,
		GuildID:   guildID,
		Nick:      nick,
		RoleIDs:   w.Roles,
		AvatarURL: avatarURL,
	}, nil
}
