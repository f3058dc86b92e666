// Package log содержит обвязку для slog: маскировку токенов
// авторизации в записях лога.
package log

import (
	"context"
	"log/slog"
	"regexp"
)

// TokenMaskerHandler — обертка для slog.Handler, маскирующая токены
// Discord в сообщениях и атрибутах.
type TokenMaskerHandler struct {
	handler slog.Handler
}

// NewTokenMaskerHandler создает обработчик с маскировкой токенов.
func NewTokenMaskerHandler(handler slog.Handler) *TokenMaskerHandler {
	return &TokenMaskerHandler{
		handler: handler,
	}
}

// Токены Discord: три base64url-секции через точки у обычных токенов
// и префикс mfa. у токенов сессий с двухфакторной авторизацией.
var discordTokenRegexes = []*regexp.Regexp{
	regexp.MustCompile(`[\w-]{23,28}\.[\w-]{6,7}\.[\w-]{27,}`),
	regexp.MustCompile(`mfa\.[\w-]{20,}`),
}

// maskTokens заменяет найденные токены на маску.
func maskTokens(text string) string {
	for _, re := range discordTokenRegexes {
		text = re.ReplaceAllString(text, "***masked-token***")
	}
	return text
}

// Enabled реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler.
// Запись собирается заново: Clone сохранил бы исходные атрибуты,
// и немаскированный токен дошел бы до вывода.
func (h *TokenMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	r := slog.NewRecord(record.Time, record.Level, maskTokens(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(slog.Attr{
			Key:   a.Key,
			Value: maskAttributeValue(a.Value),
		})
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = slog.Attr{
			Key:   attr.Key,
			Value: maskAttributeValue(attr.Value),
		}
	}
	return &TokenMaskerHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup реализует интерфейс slog.Handler.
func (h *TokenMaskerHandler) WithGroup(name string) slog.Handler {
	return &TokenMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов.
// Ошибки приводятся к строке: токен чаще всего утекает именно через
// URL внутри текста ошибки HTTP-клиента.
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskTokens(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		maskedGroup := make([]slog.Attr, len(group))
		for i, attr := range group {
			maskedGroup[i] = slog.Attr{
				Key:   attr.Key,
				Value: maskAttributeValue(attr.Value),
			}
		}
		return slog.GroupValue(maskedGroup...)
	default:
		return value
	}
}

// NewMaskedLogger создает slog.Logger с маскировкой токенов.
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewTokenMaskerHandler(handler))
}
