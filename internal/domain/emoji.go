package domain

import (
	"fmt"
	"strings"

	"github.com/forPelevin/gomoji"
)

// Emoji — эмодзи в сообщении или реакции.
// Для стандартных эмодзи идентификатор нулевой, а Name содержит сами
// символы; для кастомных Name содержит имя из гильдии.
type Emoji struct {
	ID         Snowflake
	Name       string
	IsAnimated bool
}

// IsCustom сообщает, является ли эмодзи кастомным эмодзи гильдии.
func (e Emoji) IsCustom() bool {
	return !e.ID.IsZero()
}

// Code возвращает краткий код эмодзи: имя для кастомных,
// шорткод по базе gomoji для стандартных, иначе сами символы.
func (e Emoji) Code() string {
	if e.IsCustom() {
		return e.Name
	}
	if info, err := gomoji.GetInfo(e.Name); err == nil {
		return strings.ReplaceAll(info.Slug, "-", "_")
	}
	return e.Name
}

// TwemojiCode возвращает код изображения twemoji: шестнадцатеричные
// кодовые точки через дефис. Вариантный селектор U+FE0F опускается,
// когда последовательность не содержит объединителя U+200D.
func (e Emoji) TwemojiCode() string {
	runes := []rune(e.Name)
	hasZWJ := false
	for _, r := range runes {
		if r == 0x200D {
			hasZWJ = true
			break
		}
	}

	parts := make([]string, 0, len(runes))
	for _, r := range runes {
		if r == 0xFE0F && !hasZWJ {
			continue
		}
		parts = append(parts, fmt.Sprintf("%x", r))
	}
	return strings.Join(parts, "-")
}

// ImageURL возвращает URL изображения эмодзи: CDN Discord для кастомных,
// набор twemoji для стандартных.
func (e Emoji) ImageURL() string {
	if e.IsCustom() {
		ext := "png"
		if e.IsAnimated {
			ext = "gif"
		}
		return fmt.Sprintf("%s/emojis/%s.%s", cdnBaseURL, e.ID, ext)
	}
	return fmt.Sprintf("https://cdn.jsdelivr.net/gh/jdecked/twemoji@latest/assets/svg/%s.svg", e.TwemojiCode())
}

// emojiWire — формат эмодзи на проводе.
type emojiWire struct {
	ID       Snowflake `json:"id"`
	Name     *string   `json:"name"`
	Animated bool      `json:"animated"`
}

func emojiFromWire(w emojiWire) Emoji {
	name := ""
	if w.Name != nil {
		name = *w.Name
	}
	return Emoji{ID: w.ID, Name: name, IsAnimated: w.Animated}
}
