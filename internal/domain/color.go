package domain

import "fmt"

// Color — 24-битный цвет RGB, как его передает API (целое число).
type Color uint32

// NewColor нормализует "сырое" значение цвета из API.
// Нулевое значение по протоколу означает "цвет не задан" и превращается в nil.
func NewColor(raw uint32) *Color {
	if raw == 0 {
		return nil
	}
	c := Color(raw & 0xFFFFFF)
	return &c
}

// R возвращает красную компоненту.
func (c Color) R() uint8 { return uint8(c >> 16) }

// G возвращает зеленую компоненту.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B возвращает синюю компоненту.
func (c Color) B() uint8 { return uint8(c) }

// Hex возвращает цвет в виде "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%06x", uint32(c))
}

// CSS возвращает цвет в виде "rgb(r, g, b)" для встраивания в стили.
func (c Color) CSS() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R(), c.G(), c.B())
}
