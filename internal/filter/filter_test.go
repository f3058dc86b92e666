package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discord-chat-archiver/internal/domain"
)

func message(opts ...func(*domain.Message)) *domain.Message {
	m := &domain.Message{
		Author:  domain.User{ID: 1, Name: "john", DisplayName: "John"},
		Content: "hello world",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, Null, f)
	assert.True(t, f.Matches(message()))
}

func TestParse_Contains(t *testing.T) {
	f, err := Parse("HELLO")
	require.NoError(t, err)

	assert.True(t, f.Matches(message()))
	assert.False(t, f.Matches(message(func(m *domain.Message) { m.Content = "goodbye" })))
}

func TestParse_FromAndHas(t *testing.T) {
	f, err := Parse("from:john has:attachment")
	require.NoError(t, err)

	withAttachment := message(func(m *domain.Message) {
		m.Attachments = []domain.Attachment{{FileName: "file.bin"}}
	})
	assert.True(t, f.Matches(withAttachment))

	// Тот же автор, но без вложений.
	assert.False(t, f.Matches(message()))
}

func TestParse_FromMatchesIDNameAndFullName(t *testing.T) {
	m := message(func(m *domain.Message) {
		m.Author = domain.User{ID: 42, Name: "john", Discriminator: 7}
	})

	for _, expr := range []string{"from:42", "from:John", `from:"john#0007"`} {
		f, err := Parse(expr)
		require.NoError(t, err, expr)
		assert.True(t, f.Matches(m), expr)
	}
}

func TestParse_Operators(t *testing.T) {
	m := message(func(m *domain.Message) {
		m.Content = "check https://example.com please"
		m.IsPinned = true
		m.MentionedUsers = []domain.User{{ID: 2, Name: "jane"}}
		m.Reactions = []domain.Reaction{{Emoji: domain.Emoji{Name: "🔥"}}}
	})

	tests := []struct {
		expr string
		want bool
	}{
		{expr: "has:link", want: true},
		{expr: "has:links", want: true},
		{expr: "has:pin", want: true},
		{expr: "has:invite", want: false},
		{expr: "mentions:jane", want: true},
		{expr: "mentions:bob", want: false},
		{expr: "reaction:🔥", want: true},
		{expr: "-has:embed", want: true},
		{expr: "has:link or has:embed", want: true},
		{expr: "has:embed | has:pin", want: true},
		{expr: "has:embed & has:pin", want: false},
		{expr: "(has:embed or has:pin) example", want: true},
		{expr: "not has:pin", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Matches(m))
		})
	}
}

func TestParse_HyphenInsideWord(t *testing.T) {
	// Дефис внутри слова — часть текста, отрицание только в начале лексемы.
	f, err := Parse("from:so-called")
	require.NoError(t, err)
	assert.True(t, f.Matches(message(func(m *domain.Message) {
		m.Author = domain.User{ID: 5, Name: "so-called"}
	})))
	assert.False(t, f.Matches(message()))

	f, err = Parse("re-use")
	require.NoError(t, err)
	assert.True(t, f.Matches(message(func(m *domain.Message) { m.Content = "please re-use this" })))
	assert.False(t, f.Matches(message(func(m *domain.Message) { m.Content = "please use this" })))

	f, err = Parse("-spam")
	require.NoError(t, err)
	assert.True(t, f.Matches(message()))
	assert.False(t, f.Matches(message(func(m *domain.Message) { m.Content = "spam here" })))
}

func TestParse_QuotedContains(t *testing.T) {
	f, err := Parse(`"hello world"`)
	require.NoError(t, err)
	assert.True(t, f.Matches(message()))

	// Кавычки защищают ключевые слова от интерпретации.
	f, err = Parse(`"and"`)
	require.NoError(t, err)
	assert.False(t, f.Matches(message(func(m *domain.Message) { m.Content = "no keyword here" })))
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{"(has:pin", `"unterminated`, "has:", "from:john)"} {
		t.Run(expr, func(t *testing.T) {
			_, err := Parse(expr)
			assert.Error(t, err)
		})
	}
}

func TestCombinatorLaws(t *testing.T) {
	f, err := Parse("has:pin")
	require.NoError(t, err)

	// and(Null) — нейтрально, or(Null) — поглощает, двойное отрицание снимается.
	assert.Equal(t, f, And(f, Null))
	assert.Equal(t, f, And(Null, f))
	assert.Equal(t, Null, Or(f, Null))
	assert.Equal(t, f, Negate(Negate(f)))
}

func TestParse_UnknownOperatorFallsBackToContains(t *testing.T) {
	f, err := Parse("foo:bar")
	require.NoError(t, err)

	assert.True(t, f.Matches(message(func(m *domain.Message) { m.Content = "see foo:bar here" })))
	assert.False(t, f.Matches(message()))
}
