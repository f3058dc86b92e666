package discord

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"discord-chat-archiver/internal/domain"
)

const (
	defaultBaseURL = "https://discord.com/api/v10"

	// maxAttempts — предел попыток на один запрос.
	maxAttempts = 5
	// maxDelay — потолок любой паузы между попытками и пауз бюджета лимитов.
	maxDelay = 60 * time.Second
)

// Option — функциональная опция клиента.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (в тестах).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBaseURL подменяет корневой URL API (в тестах).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithRateLimitPreference задает политику уважения бюджета лимитов.
func WithRateLimitPreference(p RateLimitPreference) Option {
	return func(c *Client) {
		c.pref = p
	}
}

// WithLogger задает логгер клиента.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client — аутентифицированный клиент HTTP API Discord.
// Безопасен для одновременного использования.
type Client struct {
	http    *http.Client
	baseURL string
	token   Token
	pref    RateLimitPreference
	log     *slog.Logger
}

// newHTTPClient строит транспорт с таймаутами: 10 секунд на соединение,
// 30 секунд на простой и ожидание заголовков ответа.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			IdleConnTimeout:       30 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
		},
	}
}

// NewClient создает клиент и определяет вид токена пробой /users/@me:
// сначала сырой токен, затем с префиксом "Bot ". Побеждает первый ответ,
// отличный от 401; отказ в обоих режимах фатален.
func NewClient(ctx context.Context, rawToken string, opts ...Option) (*Client, error) {
	c := &Client{
		http:    newHTTPClient(),
		baseURL: defaultBaseURL,
		pref:    RespectAll,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	token, err := c.resolveToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	c.token = token

	c.log.DebugContext(ctx, "Resolved authentication token", "kind", token.Kind.String())
	return c, nil
}

// TokenKind возвращает определенный при создании вид токена.
func (c *Client) TokenKind() TokenKind {
	return c.token.Kind
}

// resolveToken пробует оба режима аутентификации.
func (c *Client) resolveToken(ctx context.Context, raw string) (Token, error) {
	for _, kind := range []TokenKind{TokenKindUser, TokenKindBot} {
		candidate := Token{Kind: kind, Value: raw}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/@me", nil)
		if err != nil {
			return Token{}, err
		}
		req.Header.Set("Authorization", candidate.AuthHeader())

		resp, err := c.http.Do(req)
		if err != nil {
			return Token{}, domain.WrapFatalError("failed to probe authentication token", err)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			return candidate, nil
		}
	}
	return Token{}, domain.ErrInvalidToken
}

// retryPolicy строит политику задержек: экспонента от секунды с джиттером,
// потолок 60 секунд.
func retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.Multiplier = 2
	policy.MaxInterval = maxDelay
	policy.MaxElapsedTime = 0
	return policy
}

// isRetryableStatus сообщает, имеет ли смысл повторять запрос.
func isRetryableStatus(status int) bool {
	return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests ||
		(status >= 500 && status < 600)
}

// getJSON выполняет GET с повторами и учетом бюджета лимитов.
// Возвращает тело и статус последнего ответа.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	policy := retryPolicy()
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, c.nextDelay(policy, lastErr)); err != nil {
				return nil, 0, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("Authorization", c.token.AuthHeader())

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
			c.log.WarnContext(ctx, "Transport error, will retry", "path", path, "attempt", attempt+1, "error", err)
			lastErr = &requestError{err: err}
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if err := c.applyRateBudget(ctx, resp); err != nil {
			return nil, 0, err
		}

		if readErr != nil {
			lastErr = &requestError{err: readErr}
			continue
		}

		if isRetryableStatus(resp.StatusCode) {
			c.log.WarnContext(ctx, "Request was throttled or failed upstream, will retry",
				"path", path, "status", resp.StatusCode, "attempt", attempt+1)
			lastErr = &requestError{status: resp.StatusCode, retryAfter: parseRetryAfter(resp)}
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, domain.WrapFatalError(
		fmt.Sprintf("request to %s failed after %d attempts", path, maxAttempts), lastErr)
}

// requestError — недолетевший или отвергнутый запрос.
type requestError struct {
	status     int
	retryAfter time.Duration
	err        error
}

func (e *requestError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("unexpected status code %d", e.status)
}

func (e *requestError) Unwrap() error {
	return e.err
}

// nextDelay выбирает паузу перед повтором: Retry-After сервера, если он
// был в ответе, иначе очередной интервал экспоненциальной политики.
func (c *Client) nextDelay(policy backoff.BackOff, lastErr error) time.Duration {
	delay := policy.NextBackOff()
	if delay == backoff.Stop || delay > maxDelay {
		delay = maxDelay
	}

	var reqErr *requestError
	if errors.As(lastErr, &reqErr) && reqErr.retryAfter > 0 {
		delay = reqErr.retryAfter
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return delay
}

// parseRetryAfter читает заголовок Retry-After (секунды, возможно дробные).
func parseRetryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil && seconds > 0 {
		return time.Duration(seconds * float64(time.Second))
	}
	return 0
}

// applyRateBudget читает бюджет лимитов из заголовков ответа и,
// если бюджет исчерпан, проактивно ждет его восстановления.
func (c *Client) applyRateBudget(ctx context.Context, resp *http.Response) error {
	if !c.pref.IsRespectedFor(c.token.Kind) {
		return nil
	}

	remainingRaw := resp.Header.Get("X-RateLimit-Remaining")
	resetAfterRaw := resp.Header.Get("X-RateLimit-Reset-After")
	if remainingRaw == "" || resetAfterRaw == "" {
		return nil
	}

	remaining, err := strconv.ParseFloat(remainingRaw, 64)
	if err != nil || remaining > 0 {
		return nil
	}
	resetAfter, err := strconv.ParseFloat(resetAfterRaw, 64)
	if err != nil {
		return nil
	}

	// Секунда сверху страхует от расхождения часов с сервером.
	delay := time.Duration(resetAfter*float64(time.Second)) + time.Second
	if delay > maxDelay {
		delay = maxDelay
	}

	c.log.DebugContext(ctx, "Rate limit budget exhausted, waiting for reset", "delay", delay)
	return sleepContext(ctx, delay)
}

// sleepContext ждет паузу с уважением отмены контекста.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
