package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// cdnBaseURL — корень CDN Discord для аватаров, иконок и вложений.
const cdnBaseURL = "https://cdn.discordapp.com"

// User — участник в глобальном (не привязанном к гильдии) представлении.
// Значение неизменяемо после разбора.
type User struct {
	ID Snowflake
	// Name — уникальное имя аккаунта.
	Name string
	// DisplayName — глобальное отображаемое имя; совпадает с Name, если не задано.
	DisplayName string
	IsBot       bool
	// Discriminator — четырехзначный суффикс старой схемы имен.
	// Ноль означает аккаунт новой схемы без дискриминатора.
	Discriminator int
	AvatarURL     string
}

// DiscriminatorFormatted возвращает дискриминатор в виде "0042".
func (u User) DiscriminatorFormatted() string {
	return fmt.Sprintf("%04d", u.Discriminator)
}

// FullName возвращает "name#0042" для старой схемы имен и просто имя для новой.
func (u User) FullName() string {
	if u.Discriminator != 0 {
		return u.Name + "#" + u.DiscriminatorFormatted()
	}
	return u.Name
}

// userWire — формат пользователя на проводе.
type userWire struct {
	ID            Snowflake `json:"id"`
	Username      string    `json:"username"`
	GlobalName    *string   `json:"global_name"`
	Discriminator string    `json:"discriminator"`
	Bot           bool      `json:"bot"`
	Avatar        *string   `json:"avatar"`
}

// ParseUser разбирает пользователя из JSON API.
func ParseUser(data []byte) (User, error) {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return User{}, fmt.Errorf("failed to parse user: %w", err)
	}
	return userFromWire(w), nil
}

func userFromWire(w userWire) User {
	// Дискриминатор "0" нормализуется к отсутствующему: новая схема имен.
	discriminator, _ := strconv.Atoi(w.Discriminator)

	displayName := w.Username
	if w.GlobalName != nil && *w.GlobalName != "" {
		displayName = *w.GlobalName
	}

	u := User{
		ID:            w.ID,
		Name:          w.Username,
		DisplayName:   displayName,
		IsBot:         w.Bot,
		Discriminator: discriminator,
	}
	u.AvatarURL = userAvatarURL(u.ID, discriminator, w.Avatar)
	return u
}

// userAvatarURL выбирает URL аватара: собственный, если задан хеш,
// иначе один из стандартных.
func userAvatarURL(id Snowflake, discriminator int, avatarHash *string) string {
	if avatarHash != nil && *avatarHash != "" {
		ext := "png"
		if strings.HasPrefix(*avatarHash, "a_") {
			ext = "gif"
		}
		return fmt.Sprintf("%s/avatars/%s/%s.%s?size=512", cdnBaseURL, id, *avatarHash, ext)
	}
	return defaultAvatarURL(id, discriminator)
}

// defaultAvatarURL возвращает стандартный аватар.
// Для старой схемы индекс выводится из дискриминатора, для новой — из
// временной части идентификатора.
func defaultAvatarURL(id Snowflake, discriminator int) string {
	var index int
	if discriminator != 0 {
		index = discriminator % 5
	} else {
		index = int((uint64(id) >> 22) % 6)
	}
	return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBaseURL, index)
}
