package filter

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind — вид лексемы выражения фильтра.
type tokenKind int

const (
	tokenText tokenKind = iota
	tokenColon
	tokenLParen
	tokenRParen
	tokenNot
	tokenAnd
	tokenOr
	tokenEOF
)

// token — одна лексема.
// Флаг quoted отличает строку в кавычках: к ней не применяются ключевые слова.
type token struct {
	kind   tokenKind
	value  string
	quoted bool
}

// isSpecial сообщает, завершает ли символ "голое" слово.
// Дефис не входит в список: внутри слова он часть текста, а отрицанием
// становится только в начале лексемы.
func isSpecial(r rune) bool {
	switch r {
	case '(', ')', ':', '&', '|', '"', '\'':
		return true
	}
	return unicode.IsSpace(r)
}

// tokenize разбивает выражение на лексемы.
func tokenize(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokenLParen})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokenRParen})
			i++
		case r == ':':
			tokens = append(tokens, token{kind: tokenColon})
			i++
		case r == '-':
			tokens = append(tokens, token{kind: tokenNot})
			i++
		case r == '&':
			i++
			if i < len(runes) && runes[i] == '&' {
				i++
			}
			tokens = append(tokens, token{kind: tokenAnd})
		case r == '|':
			i++
			if i < len(runes) && runes[i] == '|' {
				i++
			}
			tokens = append(tokens, token{kind: tokenOr})
		case r == '"' || r == '\'':
			quote := r
			i++
			var sb strings.Builder
			closed := false
			for i < len(runes) {
				if runes[i] == '\\' && i+1 < len(runes) {
					sb.WriteRune(runes[i+1])
					i += 2
					continue
				}
				if runes[i] == quote {
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated quoted string in filter expression")
			}
			tokens = append(tokens, token{kind: tokenText, value: sb.String(), quoted: true})
		default:
			start := i
			for i < len(runes) && !isSpecial(runes[i]) {
				i++
			}
			word := string(runes[start:i])
			switch strings.ToLower(word) {
			case "and":
				tokens = append(tokens, token{kind: tokenAnd})
			case "or":
				tokens = append(tokens, token{kind: tokenOr})
			case "not":
				tokens = append(tokens, token{kind: tokenNot})
			default:
				tokens = append(tokens, token{kind: tokenText, value: word})
			}
		}
	}

	tokens = append(tokens, token{kind: tokenEOF})
	return tokens, nil
}
