package markdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-chat-archiver/internal/domain"
)

func TestParse_PlainText(t *testing.T) {
	nodes := Parse("just ordinary words")
	require.Len(t, nodes, 1)
	assert.Equal(t, TextNode{Content: "just ordinary words"}, nodes[0])

	// Обычный текст восстанавливается без потерь.
	assert.Equal(t, "just ordinary words", TextContent(nodes))
}

func TestParse_BoldWithNestedItalic(t *testing.T) {
	nodes := Parse("**bold *it*** text")
	require.Len(t, nodes, 2)

	bold, ok := nodes[0].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingBold, bold.Kind)
	require.Len(t, bold.Children, 2)
	assert.Equal(t, TextNode{Content: "bold "}, bold.Children[0])

	italic, ok := bold.Children[1].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingItalic, italic.Kind)
	assert.Equal(t, []Node{TextNode{Content: "it"}}, italic.Children)

	assert.Equal(t, TextNode{Content: " text"}, nodes[1])
}

func TestParse_Shrug(t *testing.T) {
	nodes := Parse(`¯\_(ツ)_/¯`)
	require.Len(t, nodes, 1)
	assert.Equal(t, TextNode{Content: `¯\_(ツ)_/¯`}, nodes[0])
}

func TestParse_EscapedCharacter(t *testing.T) {
	nodes := Parse(`\*not italic\*`)
	assert.Equal(t, "*not italic*", TextContent(nodes))
	for _, n := range nodes {
		_, isText := n.(TextNode)
		assert.True(t, isText)
	}
}

func TestParse_Formatting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  FormattingKind
		inner string
	}{
		{name: "bold", input: "**x**", kind: FormattingBold, inner: "x"},
		{name: "italic star", input: "*x*", kind: FormattingItalic, inner: "x"},
		{name: "italic underscore", input: "_x_", kind: FormattingItalic, inner: "x"},
		{name: "underline", input: "__x__", kind: FormattingUnderline, inner: "x"},
		{name: "strikethrough", input: "~~x~~", kind: FormattingStrikethrough, inner: "x"},
		{name: "spoiler", input: "||x||", kind: FormattingSpoiler, inner: "x"},
		{name: "single quote", input: "> x", kind: FormattingQuote, inner: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes := Parse(tt.input)
			require.Len(t, nodes, 1)
			f, ok := nodes[0].(FormattingNode)
			require.True(t, ok)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.inner, TextContent(f.Children))
		})
	}
}

func TestParse_ItalicContainingBoldComposite(t *testing.T) {
	nodes := Parse("***both***")
	require.Len(t, nodes, 1)

	italic, ok := nodes[0].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingItalic, italic.Kind)
	require.Len(t, italic.Children, 1)

	bold, ok := italic.Children[0].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingBold, bold.Kind)
	assert.Equal(t, "both", TextContent(bold.Children))
}

func TestParse_MultiLineQuote(t *testing.T) {
	nodes := Parse(">>> line one\nline two")
	require.Len(t, nodes, 1)
	quote, ok := nodes[0].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingQuote, quote.Kind)
	assert.Equal(t, "line one\nline two", TextContent(quote.Children))
}

func TestParse_RepeatedQuote(t *testing.T) {
	nodes := Parse("> one\n> two\nafter")
	require.GreaterOrEqual(t, len(nodes), 2)
	quote, ok := nodes[0].(FormattingNode)
	require.True(t, ok)
	assert.Equal(t, FormattingQuote, quote.Kind)
	assert.Equal(t, "one\ntwo", TextContent(quote.Children))
}

func TestParse_Heading(t *testing.T) {
	nodes := Parse("## Section title\nbody")
	require.GreaterOrEqual(t, len(nodes), 2)
	h, ok := nodes[0].(HeadingNode)
	require.True(t, ok)
	assert.Equal(t, 2, h.Level)
	assert.Equal(t, "Section title", TextContent(h.Children))
}

func TestParse_List(t *testing.T) {
	nodes := Parse("- first\n- second")
	require.Len(t, nodes, 1)
	list, ok := nodes[0].(ListNode)
	require.True(t, ok)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "first", TextContent(list.Items[0].Children))
	assert.Equal(t, "second", TextContent(list.Items[1].Children))
}

func TestParse_Code(t *testing.T) {
	nodes := Parse("see `x := 1` here")
	require.Len(t, nodes, 3)
	assert.Equal(t, InlineCodeNode{Code: "x := 1"}, nodes[1])

	nodes = Parse("```go\nfmt.Println(1)\n```")
	require.Len(t, nodes, 1)
	code, ok := nodes[0].(MultiLineCodeNode)
	require.True(t, ok)
	assert.Equal(t, "go", code.Language)
	assert.Equal(t, "fmt.Println(1)\n", code.Code)
}

func TestParse_Mentions(t *testing.T) {
	nodes := Parse("hi <@123> in <#456> with <@&789> @everyone")
	var mentions []MentionNode
	for _, n := range nodes {
		if m, ok := n.(MentionNode); ok {
			mentions = append(mentions, m)
		}
	}
	require.Len(t, mentions, 4)
	assert.Equal(t, MentionNode{Kind: MentionUser, TargetID: 123}, mentions[0])
	assert.Equal(t, MentionNode{Kind: MentionChannel, TargetID: 456}, mentions[1])
	assert.Equal(t, MentionNode{Kind: MentionRole, TargetID: 789}, mentions[2])
	assert.Equal(t, MentionNode{Kind: MentionEveryone}, mentions[3])
}

func TestParse_Links(t *testing.T) {
	nodes := Parse("[click](https://example.com)")
	require.Len(t, nodes, 1)
	link, ok := nodes[0].(LinkNode)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", link.URL)
	assert.Equal(t, "click", TextContent(link.Children))

	nodes = Parse("go to https://example.com/page, ok")
	require.GreaterOrEqual(t, len(nodes), 2)
	link, ok = nodes[1].(LinkNode)
	require.True(t, ok)
	// Завершающая пунктуация не входит в URL.
	assert.Equal(t, "https://example.com/page", link.URL)

	nodes = Parse("<https://example.com>")
	require.Len(t, nodes, 1)
	link, ok = nodes[0].(LinkNode)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", link.URL)
}

func TestParse_Emoji(t *testing.T) {
	nodes := Parse("<:pepe:123456> and <a:dance:789>")
	custom, ok := nodes[0].(EmojiNode)
	require.True(t, ok)
	assert.Equal(t, domain.Snowflake(123456), custom.ID)
	assert.Equal(t, "pepe", custom.Name)
	assert.False(t, custom.IsAnimated)

	animated, ok := nodes[2].(EmojiNode)
	require.True(t, ok)
	assert.True(t, animated.IsAnimated)

	nodes = Parse("🔥")
	require.Len(t, nodes, 1)
	standard, ok := nodes[0].(EmojiNode)
	require.True(t, ok)
	assert.Equal(t, "🔥", standard.Name)
	assert.False(t, standard.IsCustom())
}

func TestParse_EmojiShortcode(t *testing.T) {
	nodes := Parse(":fire:")
	require.Len(t, nodes, 1)
	emoji, ok := nodes[0].(EmojiNode)
	require.True(t, ok)
	assert.Equal(t, "🔥", emoji.Name)

	// Неизвестный шорткод остается текстом.
	nodes = Parse(":definitely_not_an_emoji_xyz:")
	require.Len(t, nodes, 1)
	_, isText := nodes[0].(TextNode)
	assert.True(t, isText)
}

func TestParse_Timestamp(t *testing.T) {
	nodes := Parse("<t:1662206635:F>")
	require.Len(t, nodes, 1)
	ts, ok := nodes[0].(TimestampNode)
	require.True(t, ok)
	require.NotNil(t, ts.Instant)
	assert.Equal(t, time.Unix(1662206635, 0).UTC(), *ts.Instant)
	assert.Equal(t, "F", ts.Format)

	// r/R — относительное время: код формата отсутствует.
	nodes = Parse("<t:0:R>")
	ts = nodes[0].(TimestampNode)
	require.NotNil(t, ts.Instant)
	assert.Empty(t, ts.Format)

	// Неизвестный код формата дает невалидную метку.
	nodes = Parse("<t:0:x>")
	ts = nodes[0].(TimestampNode)
	assert.Nil(t, ts.Instant)
}

func TestParseMinimal(t *testing.T) {
	nodes := ParseMinimal("**bold** <@123> <:pepe:456>")

	// Стилизация остается сырым текстом, упоминания и кастомные эмодзи — узлами.
	require.Len(t, nodes, 4)
	assert.Equal(t, TextNode{Content: "**bold** "}, nodes[0])
	assert.Equal(t, MentionNode{Kind: MentionUser, TargetID: 123}, nodes[1])
	assert.Equal(t, TextNode{Content: " "}, nodes[2])
	emoji, ok := nodes[3].(EmojiNode)
	require.True(t, ok)
	assert.Equal(t, "pepe", emoji.Name)
}

func TestIsEmojiOnly(t *testing.T) {
	assert.True(t, IsEmojiOnly(Parse("🔥 🎉")))
	assert.False(t, IsEmojiOnly(Parse("🔥 yes")))
	assert.False(t, IsEmojiOnly(Parse("plain")))
}

func TestParse_RecursionCap(t *testing.T) {
	// Глубоко вложенные конструкции не должны ронять парсер.
	input := ""
	for i := 0; i < 40; i++ {
		input += "||"
	}
	input += "x"
	for i := 0; i < 40; i++ {
		input += "||"
	}
	assert.NotPanics(t, func() { Parse(input) })
}
