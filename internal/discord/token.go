// Package discord реализует клиент HTTP API Discord: аутентификацию,
// повторы с экспоненциальной задержкой, проактивный учет лимитов запросов
// и ленивые потоки с пагинацией по курсору.
package discord

import (
	"fmt"
	"strings"
)

// TokenKind — вид токена аутентификации.
type TokenKind int

const (
	TokenKindUser TokenKind = iota
	TokenKindBot
)

// String возвращает имя вида токена.
func (k TokenKind) String() string {
	if k == TokenKindBot {
		return "Bot"
	}
	return "User"
}

// Token — токен с уже определенным видом.
type Token struct {
	Kind  TokenKind
	Value string
}

// AuthHeader возвращает значение заголовка Authorization.
// Бот-токены передаются с префиксом "Bot ".
func (t Token) AuthHeader() string {
	if t.Kind == TokenKindBot {
		return "Bot " + t.Value
	}
	return t.Value
}

// RateLimitPreference определяет, для каких видов токена клиент
// проактивно уважает бюджет запросов, объявляемый сервером.
type RateLimitPreference int

const (
	// RespectAll — уважать бюджет для любого токена (по умолчанию).
	RespectAll RateLimitPreference = iota
	RespectUser
	RespectBot
	IgnoreAll
)

// IsRespectedFor сообщает, нужно ли уважать бюджет для данного вида токена.
func (p RateLimitPreference) IsRespectedFor(kind TokenKind) bool {
	switch p {
	case RespectAll:
		return true
	case RespectUser:
		return kind == TokenKindUser
	case RespectBot:
		return kind == TokenKindBot
	default:
		return false
	}
}

// String возвращает каноническое имя предпочтения.
func (p RateLimitPreference) String() string {
	switch p {
	case RespectUser:
		return "RespectUser"
	case RespectBot:
		return "RespectBot"
	case IgnoreAll:
		return "IgnoreAll"
	default:
		return "RespectAll"
	}
}

// ParseRateLimitPreference разбирает предпочтение из строки конфигурации.
func ParseRateLimitPreference(s string) (RateLimitPreference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "respectall", "respect-all":
		return RespectAll, nil
	case "respectuser", "respect-user":
		return RespectUser, nil
	case "respectbot", "respect-bot":
		return RespectBot, nil
	case "ignoreall", "ignore-all":
		return IgnoreAll, nil
	default:
		return RespectAll, fmt.Errorf("unknown rate limit preference %q", s)
	}
}
