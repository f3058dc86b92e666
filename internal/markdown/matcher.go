package markdown

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// matchResult — результат сопоставления в текущем сегменте.
// Координаты index и length заданы в рунах, как их считает regexp2.
type matchResult struct {
	index  int
	length int
	// build строит узел; depth — глубина рекурсии для разбора детей.
	build func(depth int) Node
}

// matcher находит самое раннее вхождение своей конструкции в сегменте.
type matcher interface {
	tryMatch(text string) *matchResult
}

// stringMatcher — сопоставитель точной строки.
type stringMatcher struct {
	needle string
	build  func(match string, depth int) Node
}

func (sm stringMatcher) tryMatch(text string) *matchResult {
	byteIdx := strings.Index(text, sm.needle)
	if byteIdx < 0 {
		return nil
	}
	return &matchResult{
		index:  utf8.RuneCountInString(text[:byteIdx]),
		length: utf8.RuneCountInString(sm.needle),
		build: func(depth int) Node {
			return sm.build(sm.needle, depth)
		},
	}
}

// regexMatcher — сопоставитель по регулярному выражению regexp2
// (нужны ленивые кванторы и ретроспективные проверки).
type regexMatcher struct {
	re        *regexp2.Regexp
	transform func(m *regexp2.Match, depth int) Node
}

func newRegexMatcher(pattern string, transform func(m *regexp2.Match, depth int) Node) regexMatcher {
	return regexMatcher{
		re:        regexp2.MustCompile(pattern, regexp2.None),
		transform: transform,
	}
}

func (rm regexMatcher) tryMatch(text string) *matchResult {
	m, err := rm.re.FindStringMatch(text)
	if err != nil || m == nil {
		return nil
	}
	return &matchResult{
		index:  m.Index,
		length: m.Length,
		build: func(depth int) Node {
			return rm.transform(m, depth)
		},
	}
}

// aggregateMatcher перебирает сопоставители и выбирает совпадение
// с наименьшим начальным индексом; при равенстве побеждает
// зарегистрированный раньше.
type aggregateMatcher struct {
	matchers []matcher
}

func (am aggregateMatcher) tryMatch(text string) *matchResult {
	var best *matchResult
	for _, m := range am.matchers {
		r := m.tryMatch(text)
		if r == nil {
			continue
		}
		if best == nil || r.index < best.index {
			best = r
		}
		// Раньше начала сегмента совпадений не бывает.
		if best.index == 0 {
			break
		}
	}
	return best
}

// group возвращает текст группы захвата или пустую строку.
func group(m *regexp2.Match, n int) string {
	groups := m.Groups()
	if n >= len(groups) || len(groups[n].Captures) == 0 {
		return ""
	}
	return groups[n].String()
}
