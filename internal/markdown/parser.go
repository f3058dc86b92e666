package markdown

import (
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"

	"discord-chat-archiver/internal/domain"
)

// maxDepth — предел рекурсии при разборе вложенных конструкций.
const maxDepth = 32

// parser держит скомпилированные таблицы сопоставителей двух профилей.
type parser struct {
	full    matcher
	minimal matcher
	// boldOnly и underlineOnly используются составными конструкциями
	// *…**X**…* и _…__X__…_, дети которых разбираются одним сопоставителем.
	boldOnly      matcher
	underlineOnly matcher
}

var defaultParser = newParser()

// Parse разбирает разметку в полном профиле.
func Parse(text string) []Node {
	return defaultParser.parse(text, defaultParser.full, 0)
}

// ParseMinimal разбирает разметку в минимальном профиле: только упоминания,
// кастомные эмодзи и метки времени. Стилизация остается сырым текстом.
func ParseMinimal(text string) []Node {
	return defaultParser.parse(text, defaultParser.minimal, 0)
}

// parse покрывает сегмент ровно один раз: совпавшие узлы вперемешку
// с текстовыми узлами-заполнителями между ними.
func (p *parser) parse(text string, m matcher, depth int) []Node {
	if depth >= maxDepth {
		return []Node{TextNode{Content: text}}
	}

	var nodes []Node
	runes := []rune(text)
	pos := 0

	for pos < len(runes) {
		r := m.tryMatch(string(runes[pos:]))
		if r == nil {
			break
		}
		if r.index > 0 {
			nodes = append(nodes, TextNode{Content: string(runes[pos : pos+r.index])})
		}
		nodes = append(nodes, r.build(depth+1))
		advance := r.index + r.length
		if r.length == 0 {
			advance++
		}
		pos += advance
	}

	if pos < len(runes) {
		nodes = append(nodes, TextNode{Content: string(runes[pos:])})
	}
	return nodes
}

// formatting строит узел форматирования, разбирая детей агрегатом child.
func (p *parser) formatting(kind FormattingKind, child *matcher) func(m *regexp2.Match, depth int) Node {
	return func(m *regexp2.Match, depth int) Node {
		return FormattingNode{Kind: kind, Children: p.parse(group(m, 1), *child, depth)}
	}
}

func newParser() *parser {
	p := &parser{}

	// Агрегаты объявляются заранее: трансформации ссылаются на них по указателю.
	var full, boldOnly, underlineOnly aggregateMatcher

	fullPtr := new(matcher)
	boldPtr := new(matcher)
	underlinePtr := new(matcher)

	text := func(content string) Node { return TextNode{Content: content} }

	// --- Экранирование ---

	shrug := stringMatcher{
		needle: `¯\_(ツ)_/¯`,
		build:  func(match string, _ int) Node { return text(match) },
	}

	// Символы, которые клиент не превращает в эмодзи, остаются текстом.
	ignoredEmoji := newRegexMatcher(
		`[\x{26A7}\x{2640}\x{2642}\x{2695}\x{267E}\x{00A9}\x{00AE}\x{2122}]`,
		func(m *regexp2.Match, _ int) Node { return text(m.String()) },
	)

	escapedChar := newRegexMatcher(
		`\\([^a-zA-Z0-9\s])`,
		func(m *regexp2.Match, _ int) Node { return text(group(m, 1)) },
	)

	// --- Составные конструкции форматирования ---

	// *…**X**…*: дети разбираются только жирным сопоставителем.
	italicBold := newRegexMatcher(
		`(?s)\*(\*\*.+?\*\*)\*`,
		p.formatting(FormattingItalic, boldPtr),
	)

	// _…__X__…_: дети разбираются только сопоставителем подчеркивания.
	italicUnderline := newRegexMatcher(
		`(?s)_(__.+?__)_(?!\w)`,
		p.formatting(FormattingItalic, underlinePtr),
	)

	// --- Базовое форматирование ---

	bold := newRegexMatcher(
		`(?s)\*\*(.+?)\*\*(?!\*)`,
		p.formatting(FormattingBold, fullPtr),
	)

	underline := newRegexMatcher(
		`(?s)__(.+?)__(?!_)`,
		p.formatting(FormattingUnderline, fullPtr),
	)

	italicStar := newRegexMatcher(
		`(?s)\*(?!\s)(.+?)(?<![\s\*])\*(?!\*)`,
		p.formatting(FormattingItalic, fullPtr),
	)

	italicUnderscore := newRegexMatcher(
		`(?s)_(.+?)_(?!\w)`,
		p.formatting(FormattingItalic, fullPtr),
	)

	strikethrough := newRegexMatcher(
		`(?s)~~(.+?)~~`,
		p.formatting(FormattingStrikethrough, fullPtr),
	)

	spoiler := newRegexMatcher(
		`(?s)\|\|(.+?)\|\|`,
		p.formatting(FormattingSpoiler, fullPtr),
	)

	// --- Цитаты: блочная >>> раньше повторяющейся > , та раньше одиночной ---

	multiLineQuote := newRegexMatcher(
		`(?s)(?:^|\n)>>>\s(.+)`,
		p.formatting(FormattingQuote, fullPtr),
	)

	repeatedQuote := newRegexMatcher(
		`(?m)(?:^>\s.*\n?){2,}`,
		func(m *regexp2.Match, depth int) Node {
			lines := strings.Split(strings.TrimRight(m.String(), "\n"), "\n")
			for i, line := range lines {
				lines[i] = strings.TrimPrefix(line, "> ")
			}
			content := strings.Join(lines, "\n")
			return FormattingNode{Kind: FormattingQuote, Children: p.parse(content, *fullPtr, depth)}
		},
	)

	singleQuote := newRegexMatcher(
		`(?m)^>\s(.+\n?)`,
		p.formatting(FormattingQuote, fullPtr),
	)

	// --- Заголовки ---

	heading := newRegexMatcher(
		`(?m)^(\#{1,3})\s(.+\n?)`,
		func(m *regexp2.Match, depth int) Node {
			return HeadingNode{
				Level:    len(group(m, 1)),
				Children: p.parse(strings.TrimRight(group(m, 2), "\n"), *fullPtr, depth),
			}
		},
	)

	// --- Списки ---

	list := newRegexMatcher(
		`(?m)(?:^\s*[\-\*]\s+.+\n?)+`,
		func(m *regexp2.Match, depth int) Node {
			var items []ListItemNode
			for _, line := range strings.Split(strings.TrimRight(m.String(), "\n"), "\n") {
				content := strings.TrimLeft(line, " \t")
				content = strings.TrimPrefix(strings.TrimPrefix(content, "- "), "* ")
				items = append(items, ListItemNode{Children: p.parse(content, *fullPtr, depth)})
			}
			return ListNode{Items: items}
		},
	)

	// --- Код: многострочный раньше однострочного ---

	multiLineCode := newRegexMatcher(
		"(?s)```(?:(\\w*)\\n)?(.+?)```",
		func(m *regexp2.Match, _ int) Node {
			return MultiLineCodeNode{Language: group(m, 1), Code: group(m, 2)}
		},
	)

	inlineCode := newRegexMatcher(
		"`([^`\\n]+)`",
		func(m *regexp2.Match, _ int) Node {
			return InlineCodeNode{Code: group(m, 1)}
		},
	)

	// --- Упоминания ---

	everyoneMention := stringMatcher{
		needle: "@everyone",
		build:  func(string, int) Node { return MentionNode{Kind: MentionEveryone} },
	}
	hereMention := stringMatcher{
		needle: "@here",
		build:  func(string, int) Node { return MentionNode{Kind: MentionHere} },
	}

	mentionTransform := func(kind MentionKind) func(m *regexp2.Match, depth int) Node {
		return func(m *regexp2.Match, _ int) Node {
			id, _ := domain.ParseSnowflake(group(m, 1))
			return MentionNode{Kind: kind, TargetID: id}
		}
	}
	userMention := newRegexMatcher(`<@!?(\d+)>`, mentionTransform(MentionUser))
	channelMention := newRegexMatcher(`<#(\d+)>`, mentionTransform(MentionChannel))
	roleMention := newRegexMatcher(`<@&(\d+)>`, mentionTransform(MentionRole))

	// --- Ссылки: замаскированная, автоматическая, скрытая ---

	maskedLink := newRegexMatcher(
		`\[(.+?)\]\((.+?)\)`,
		func(m *regexp2.Match, depth int) Node {
			return LinkNode{URL: group(m, 2), Children: p.parse(group(m, 1), *fullPtr, depth)}
		},
	)

	autoLink := newRegexMatcher(
		`(https?://\S*[^\.,:;"'\)\]\s])`,
		func(m *regexp2.Match, _ int) Node {
			url := group(m, 1)
			return LinkNode{URL: url, Children: []Node{text(url)}}
		},
	)

	hiddenLink := newRegexMatcher(
		`<(https?://\S*[^\.,:;"'\)\]\s])>`,
		func(m *regexp2.Match, _ int) Node {
			url := group(m, 1)
			return LinkNode{URL: url, Children: []Node{text(url)}}
		},
	)

	// --- Эмодзи: стандартные байты, кастомные <:n:id>, шорткод :n: ---

	standardEmoji := newRegexMatcher(
		standardEmojiPattern,
		func(m *regexp2.Match, _ int) Node {
			return EmojiNode{Name: m.String()}
		},
	)

	customEmoji := newRegexMatcher(
		`<(a)?:(\w+):(\d+)>`,
		func(m *regexp2.Match, _ int) Node {
			id, _ := domain.ParseSnowflake(group(m, 3))
			return EmojiNode{ID: id, Name: group(m, 2), IsAnimated: group(m, 1) != ""}
		},
	)

	shortcodeEmoji := newRegexMatcher(
		`:([\w\+\-]+):`,
		func(m *regexp2.Match, _ int) Node {
			if char, ok := emojiByShortcode(group(m, 1)); ok {
				return EmojiNode{Name: char}
			}
			// Неизвестный шорткод остается текстом.
			return text(m.String())
		},
	)

	// --- Метка времени ---

	timestamp := newRegexMatcher(
		`<t:(-?\d+)(?::(\w))?>`,
		func(m *regexp2.Match, _ int) Node {
			seconds, err := strconv.ParseInt(group(m, 1), 10, 64)
			if err != nil {
				return InvalidTimestampNode
			}
			format := "f"
			if code := group(m, 2); code != "" {
				switch code {
				case "t", "T", "d", "D", "f", "F":
					format = code
				case "r", "R":
					// Относительное время: код формата отсутствует.
					format = ""
				default:
					return InvalidTimestampNode
				}
			}
			return NewTimestampNode(seconds, format)
		},
	)

	// Порядок регистрации определяет победителя при равных индексах.
	full = aggregateMatcher{matchers: []matcher{
		shrug, ignoredEmoji, escapedChar,
		italicBold, italicUnderline,
		bold, underline, italicStar, italicUnderscore, strikethrough, spoiler,
		multiLineQuote, repeatedQuote, singleQuote,
		heading, list,
		multiLineCode, inlineCode,
		everyoneMention, hereMention, userMention, channelMention, roleMention,
		maskedLink, autoLink, hiddenLink,
		standardEmoji, customEmoji, shortcodeEmoji,
		timestamp,
	}}

	boldOnly = aggregateMatcher{matchers: []matcher{bold}}
	underlineOnly = aggregateMatcher{matchers: []matcher{underline}}

	minimal := aggregateMatcher{matchers: []matcher{
		everyoneMention, hereMention, userMention, channelMention, roleMention,
		customEmoji,
		timestamp,
	}}

	*fullPtr = full
	*boldPtr = boldOnly
	*underlinePtr = underlineOnly

	p.full = full
	p.minimal = minimal
	p.boldOnly = boldOnly
	p.underlineOnly = underlineOnly
	return p
}
