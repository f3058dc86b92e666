// Package markdown реализует разбор разметки Discord в AST.
// Парсер построен на упорядоченном по приоритету списке сопоставителей,
// а не на рекурсивном спуске: на каждом шаге выбирается самое раннее
// совпадение в сегменте.
package markdown

import (
	"fmt"
	"strings"
	"time"

	"discord-chat-archiver/internal/domain"
)

// Node — узел AST разметки.
type Node interface {
	node()
}

// TextNode — фрагмент обычного текста.
type TextNode struct {
	Content string
}

func (TextNode) node() {}

// FormattingKind — вид форматирования текста.
type FormattingKind int

const (
	FormattingBold FormattingKind = iota
	FormattingItalic
	FormattingUnderline
	FormattingStrikethrough
	FormattingSpoiler
	FormattingQuote
)

// String возвращает имя вида форматирования.
func (k FormattingKind) String() string {
	switch k {
	case FormattingBold:
		return "Bold"
	case FormattingItalic:
		return "Italic"
	case FormattingUnderline:
		return "Underline"
	case FormattingStrikethrough:
		return "Strikethrough"
	case FormattingSpoiler:
		return "Spoiler"
	case FormattingQuote:
		return "Quote"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// FormattingNode — контейнер форматированного текста.
type FormattingNode struct {
	Kind     FormattingKind
	Children []Node
}

func (FormattingNode) node() {}

// HeadingNode — заголовок уровня 1..3.
type HeadingNode struct {
	Level    int
	Children []Node
}

func (HeadingNode) node() {}

// ListItemNode — один пункт списка.
type ListItemNode struct {
	Children []Node
}

// ListNode — маркированный список.
type ListNode struct {
	Items []ListItemNode
}

func (ListNode) node() {}

// InlineCodeNode — однострочный фрагмент кода.
type InlineCodeNode struct {
	Code string
}

func (InlineCodeNode) node() {}

// MultiLineCodeNode — блок кода с необязательным языком.
type MultiLineCodeNode struct {
	Language string
	Code     string
}

func (MultiLineCodeNode) node() {}

// LinkNode — ссылка. Children — отображаемый текст.
type LinkNode struct {
	URL      string
	Children []Node
}

func (LinkNode) node() {}

// EmojiNode — эмодзи: стандартное (ID нулевой, Name — сами символы)
// или кастомное эмодзи гильдии.
type EmojiNode struct {
	ID         domain.Snowflake
	Name       string
	IsAnimated bool
}

func (EmojiNode) node() {}

// IsCustom сообщает, является ли эмодзи кастомным.
func (e EmojiNode) IsCustom() bool {
	return !e.ID.IsZero()
}

// Code возвращает краткий код эмодзи.
func (e EmojiNode) Code() string {
	return e.toDomain().Code()
}

// ImageURL возвращает URL изображения эмодзи.
func (e EmojiNode) ImageURL() string {
	return e.toDomain().ImageURL()
}

func (e EmojiNode) toDomain() domain.Emoji {
	return domain.Emoji{ID: e.ID, Name: e.Name, IsAnimated: e.IsAnimated}
}

// MentionKind — вид упоминания.
type MentionKind int

const (
	MentionEveryone MentionKind = iota
	MentionHere
	MentionUser
	MentionChannel
	MentionRole
)

// MentionNode — упоминание. TargetID нулевой для everyone/here.
type MentionNode struct {
	Kind     MentionKind
	TargetID domain.Snowflake
}

func (MentionNode) node() {}

// TimestampNode — метка времени <t:...>.
// Instant равен nil у невалидной метки; пустой Format означает
// относительное время ("5 minutes ago").
type TimestampNode struct {
	Instant *time.Time
	Format  string
}

func (TimestampNode) node() {}

// NewTimestampNode строит метку времени из Unix-секунд и кода формата.
func NewTimestampNode(unixSeconds int64, format string) TimestampNode {
	t := time.Unix(unixSeconds, 0).UTC()
	return TimestampNode{Instant: &t, Format: format}
}

// InvalidTimestampNode — единый узел для метки с неизвестным кодом формата.
var InvalidTimestampNode = TimestampNode{}

// IsEmojiOnly сообщает, состоит ли дерево только из эмодзи и пробелов.
// Используется для режима увеличенных эмодзи в HTML.
func IsEmojiOnly(nodes []Node) bool {
	sawEmoji := false
	for _, n := range nodes {
		switch v := n.(type) {
		case EmojiNode:
			sawEmoji = true
		case TextNode:
			if strings.TrimSpace(v.Content) != "" {
				return false
			}
		default:
			return false
		}
	}
	return sawEmoji
}

// TextContent возвращает сырой текст поддерева: для проверок и отладки.
func TextContent(nodes []Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch v := n.(type) {
		case TextNode:
			sb.WriteString(v.Content)
		case FormattingNode:
			sb.WriteString(TextContent(v.Children))
		case HeadingNode:
			sb.WriteString(TextContent(v.Children))
		case ListNode:
			for _, item := range v.Items {
				sb.WriteString(TextContent(item.Children))
			}
		case InlineCodeNode:
			sb.WriteString(v.Code)
		case MultiLineCodeNode:
			sb.WriteString(v.Code)
		case LinkNode:
			sb.WriteString(TextContent(v.Children))
		case EmojiNode:
			sb.WriteString(v.Name)
		}
	}
	return sb.String()
}
