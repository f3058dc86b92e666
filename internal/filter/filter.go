// Package filter реализует язык фильтрации сообщений: лексер,
// парсер с рекурсивным спуском и дерево комбинируемых предикатов.
package filter

import "discord-chat-archiver/internal/domain"

// MessageFilter — предикат над сообщением.
type MessageFilter interface {
	Matches(m *domain.Message) bool
}

// nullFilter пропускает все сообщения.
type nullFilter struct{}

func (nullFilter) Matches(*domain.Message) bool { return true }

// Null — фильтр пустого выражения: совпадает со всем.
// Вызывающие стороны не должны полагаться на идентичность ссылки.
var Null MessageFilter = nullFilter{}

type negatedFilter struct {
	inner MessageFilter
}

func (f negatedFilter) Matches(m *domain.Message) bool {
	return !f.inner.Matches(m)
}

type andFilter struct {
	left, right MessageFilter
}

func (f andFilter) Matches(m *domain.Message) bool {
	return f.left.Matches(m) && f.right.Matches(m)
}

type orFilter struct {
	left, right MessageFilter
}

func (f orFilter) Matches(m *domain.Message) bool {
	return f.left.Matches(m) || f.right.Matches(m)
}

// And соединяет два фильтра конъюнкцией. Null — нейтральный элемент.
func And(a, b MessageFilter) MessageFilter {
	if a == Null {
		return b
	}
	if b == Null {
		return a
	}
	return andFilter{left: a, right: b}
}

// Or соединяет два фильтра дизъюнкцией. Null поглощает все выражение.
func Or(a, b MessageFilter) MessageFilter {
	if a == Null || b == Null {
		return Null
	}
	return orFilter{left: a, right: b}
}

// Negate инвертирует фильтр. Двойное отрицание снимается.
func Negate(f MessageFilter) MessageFilter {
	if n, ok := f.(negatedFilter); ok {
		return n.inner
	}
	return negatedFilter{inner: f}
}
