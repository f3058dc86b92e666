package filter

import (
	"fmt"
	"strings"
)

// Parse разбирает выражение фильтра в дерево предикатов.
// Пустое выражение дает фильтр Null, пропускающий все сообщения.
//
// Грамматика (по возрастанию приоритета):
//
//	Or      := And ('or' And)*
//	And     := Unary (('and' | неявно) Unary)*
//	Unary   := '-' Primary | Primary
//	Primary := '(' Or ')' | оператор ':' значение | текст
func Parse(input string) (MessageFilter, error) {
	if strings.TrimSpace(input) == "" {
		return Null, nil
	}

	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokenEOF {
		return nil, fmt.Errorf("unexpected token at end of filter expression")
	}
	return f, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseOr() (MessageFilter, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.peek().kind == tokenOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or(left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (MessageFilter, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().kind {
		case tokenAnd:
			p.next()
		case tokenText, tokenLParen, tokenNot:
			// Неявное "и": соседние термы без оператора между ними.
		default:
			return left, nil
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = And(left, right)
	}
}

func (p *parser) parseUnary() (MessageFilter, error) {
	if p.peek().kind == tokenNot {
		p.next()
		inner, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return Negate(inner), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (MessageFilter, error) {
	switch t := p.next(); t.kind {
	case tokenLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokenRParen {
			return nil, fmt.Errorf("missing closing parenthesis in filter expression")
		}
		return inner, nil

	case tokenText:
		// Оператор вида "ключ:значение" распознается только у слов без кавычек.
		if !t.quoted && p.peek().kind == tokenColon {
			p.next()
			value := p.next()
			if value.kind != tokenText {
				return nil, fmt.Errorf("operator %q is missing a value", t.value)
			}
			return newOperatorFilter(strings.ToLower(t.value), value.value)
		}
		return containsFilter{text: t.value}, nil

	case tokenEOF:
		return nil, fmt.Errorf("unexpected end of filter expression")

	default:
		return nil, fmt.Errorf("unexpected token in filter expression")
	}
}

// newOperatorFilter строит фильтр для оператора "ключ:значение".
// Неизвестный ключ трактуется как поиск подстроки "ключ:значение".
func newOperatorFilter(key, value string) (MessageFilter, error) {
	switch key {
	case "from":
		return fromFilter{value: value}, nil
	case "mentions":
		return mentionsFilter{value: value}, nil
	case "reaction":
		return reactionFilter{value: value}, nil
	case "has":
		return newHasFilter(value)
	case "contains":
		return containsFilter{text: value}, nil
	default:
		return containsFilter{text: key + ":" + value}, nil
	}
}
