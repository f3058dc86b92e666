package markdown

import (
	"strings"

	"github.com/forPelevin/gomoji"
)

// standardEmojiPattern покрывает основные блоки Unicode-эмодзи:
// пары региональных индикаторов (флаги) и последовательности пиктограмм
// с селекторами вариантов, модификаторами тона кожи и объединителем U+200D.
const standardEmojiPattern = `(?:[\x{1F1E6}-\x{1F1FF}]{2})` +
	`|(?:[\x{1F000}-\x{1FAFF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{2B00}-\x{2BFF}\x{2764}]\x{FE0F}?[\x{1F3FB}-\x{1F3FF}]?` +
	`(?:\x{200D}[\x{1F000}-\x{1FAFF}\x{2600}-\x{26FF}\x{2700}-\x{27BF}\x{2764}]\x{FE0F}?[\x{1F3FB}-\x{1F3FF}]?)*)`

// shortcodeIndex отображает шорткоды вида "fire" и "red_heart"
// в символы эмодзи. База берется из gomoji.
var shortcodeIndex = buildShortcodeIndex()

func buildShortcodeIndex() map[string]string {
	all := gomoji.AllEmojis()
	index := make(map[string]string, len(all)*2)
	for _, e := range all {
		index[e.Slug] = e.Character
		index[strings.ReplaceAll(e.Slug, "-", "_")] = e.Character
	}
	return index
}

// emojiByShortcode возвращает символ эмодзи по шорткоду.
func emojiByShortcode(code string) (string, bool) {
	char, ok := shortcodeIndex[strings.ToLower(code)]
	return char, ok
}
