package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"discord-chat-archiver/internal/domain"
)

const pageSize = 100

// Stream лениво выдает элементы постраничного API.
// Очередная страница запрашивается только когда предыдущая исчерпана.
type Stream[T any] struct {
	fetch func(ctx context.Context) ([]T, bool, error)

	buf  []T
	pos  int
	cur  T
	done bool
	err  error
}

// NewStream строит поток по функции выдачи страниц.
func NewStream[T any](fetch func(ctx context.Context) ([]T, bool, error)) *Stream[T] {
	return &Stream[T]{fetch: fetch}
}

// Next продвигает поток к следующему элементу.
// Возвращает false при исчерпании либо ошибке, см. Err.
func (s *Stream[T]) Next(ctx context.Context) bool {
	if s.err != nil {
		return false
	}
	for s.pos >= len(s.buf) {
		if s.done {
			return false
		}
		page, more, err := s.fetch(ctx)
		if err != nil {
			s.err = err
			return false
		}
		s.buf = page
		s.pos = 0
		s.done = !more
	}
	s.cur = s.buf[s.pos]
	s.pos++
	return true
}

// Current возвращает элемент, на котором остановился последний Next.
func (s *Stream[T]) Current() T {
	return s.cur
}

// Err возвращает ошибку, прервавшую поток, если она была.
func (s *Stream[T]) Err() error {
	return s.err
}

// Collect вычитывает остаток потока в срез.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for s.Next(ctx) {
		out = append(out, s.Current())
	}
	return out, s.Err()
}

// GetMessages возвращает поток сообщений канала в хронологическом
// порядке, от after (не включая) до before (включая). onProgress,
// если задан, получает долю выгруженного диапазона в пределах [0, 1].
func (c *Client) GetMessages(channelID domain.Snowflake, after, before domain.Snowflake, onProgress func(float64)) *Stream[domain.Message] {
	cursor := after
	firstPage := true
	var lastID domain.Snowflake
	probed := false

	return NewStream(func(ctx context.Context) ([]domain.Message, bool, error) {
		if onProgress != nil && !probed {
			probed = true
			id, err := c.probeLastMessageID(ctx, channelID)
			if err != nil {
				return nil, false, err
			}
			lastID = id
		}

		query := url.Values{
			"limit": {strconv.Itoa(pageSize)},
			"after": {cursor.String()},
		}
		body, err := c.getQuery(ctx, "/channels/"+channelID.String()+"/messages", query)
		if err != nil {
			return nil, false, err
		}

		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, false, fmt.Errorf("failed to parse messages page: %w", err)
		}
		if len(raws) == 0 {
			return nil, false, nil
		}

		// API отдает страницу от новых к старым.
		page := make([]domain.Message, 0, len(raws))
		for i := len(raws) - 1; i >= 0; i-- {
			msg, err := domain.ParseMessage(raws[i])
			if err != nil {
				return nil, false, err
			}
			page = append(page, msg)
		}

		if firstPage {
			firstPage = false
			if err := c.checkMessageContentIntent(ctx, page); err != nil {
				return nil, false, err
			}
		}

		cursor = page[len(page)-1].ID
		shortPage := len(page) < pageSize

		if !before.IsZero() {
			for i, msg := range page {
				if msg.ID > before {
					return page[:i], false, nil
				}
			}
		}

		if onProgress != nil && !lastID.IsZero() {
			onProgress(rangeProgress(after, cursor, lastID))
		}

		return page, !shortPage, nil
	})
}

// probeLastMessageID возвращает идентификатор самого свежего
// сообщения канала, нужный для оценки прогресса выгрузки.
func (c *Client) probeLastMessageID(ctx context.Context, channelID domain.Snowflake) (domain.Snowflake, error) {
	body, err := c.getQuery(ctx, "/channels/"+channelID.String()+"/messages", url.Values{"limit": {"1"}})
	if err != nil {
		return 0, err
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return 0, fmt.Errorf("failed to parse messages page: %w", err)
	}
	if len(raws) == 0 {
		return 0, nil
	}
	msg, err := domain.ParseMessage(raws[0])
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// rangeProgress считает долю пройденного диапазона по временным
// меткам снежинок. Результат зажат в [0, 1].
func rangeProgress(after, cursor, last domain.Snowflake) float64 {
	lo := after.Time().UnixMilli()
	hi := last.Time().UnixMilli()
	cur := cursor.Time().UnixMilli()
	if hi <= lo {
		return 1
	}
	p := float64(cur-lo) / float64(hi-lo)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// checkMessageContentIntent распознает выгрузку ботом без интента
// на чтение содержимого: целая страница обычных сообщений без
// текста, вложений и эмбедов означает, что API вернул пустышки.
func (c *Client) checkMessageContentIntent(ctx context.Context, page []domain.Message) error {
	if c.token.Kind != TokenKindBot || len(page) < pageSize {
		return nil
	}
	for _, msg := range page {
		if msg.IsSystemNotification() || !msg.IsEmpty() {
			return nil
		}
	}

	app, err := c.GetApplication(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "Failed to verify message content intent", "error", err)
		return nil
	}
	if !app.IsMessageContentIntentEnabled() {
		return domain.ErrMissingIntent
	}
	return nil
}

// GetUserGuilds возвращает поток гильдий текущего пользователя.
func (c *Client) GetUserGuilds() *Stream[domain.Guild] {
	var cursor domain.Snowflake

	return NewStream(func(ctx context.Context) ([]domain.Guild, bool, error) {
		query := url.Values{
			"limit": {strconv.Itoa(pageSize)},
			"after": {cursor.String()},
		}
		body, err := c.getQuery(ctx, "/users/@me/guilds", query)
		if err != nil {
			return nil, false, err
		}

		var raws []json.RawMessage
		if err := json.Unmarshal(body, &raws); err != nil {
			return nil, false, fmt.Errorf("failed to parse guilds page: %w", err)
		}
		if len(raws) == 0 {
			return nil, false, nil
		}

		page := make([]domain.Guild, 0, len(raws))
		for _, raw := range raws {
			guild, err := domain.ParseGuild(raw)
			if err != nil {
				return nil, false, err
			}
			page = append(page, guild)
		}
		cursor = page[len(page)-1].ID
		return page, len(page) >= pageSize, nil
	})
}

// GetGuildThreads возвращает поток тредов гильдии: сначала активные,
// затем архивные для каждого доступного текстового канала.
func (c *Client) GetGuildThreads(guildID domain.Snowflake, channels []*domain.Channel) *Stream[*domain.Channel] {
	parents := make([]*domain.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Kind.IsGuild() && !ch.Kind.IsVoice() {
			parents = append(parents, ch)
		}
	}
	byID := make(map[domain.Snowflake]*domain.Channel, len(parents))
	for _, ch := range parents {
		byID[ch.ID] = ch
	}

	phase := 0 // 0: активные гильдии, дальше архивные по каналам
	parentIdx := 0

	attach := func(threads []*domain.Channel) {
		for _, th := range threads {
			if parent, ok := byID[th.ParentID]; ok {
				th.Parent = parent
			}
		}
	}

	return NewStream(func(ctx context.Context) ([]*domain.Channel, bool, error) {
		if phase == 0 {
			phase = 1
			body, err := c.tryGet(ctx, "/guilds/"+guildID.String()+"/threads/active")
			if err != nil {
				return nil, false, err
			}
			if body == nil {
				return nil, len(parents) > 0, nil
			}
			threads, err := parseThreadList(body)
			if err != nil {
				return nil, false, err
			}
			attach(threads)
			return threads, len(parents) > 0, nil
		}

		for parentIdx < len(parents) {
			parent := parents[parentIdx]
			parentIdx++
			body, err := c.tryGet(ctx, "/channels/"+parent.ID.String()+"/threads/archived/public")
			if err != nil {
				return nil, false, err
			}
			if body == nil {
				continue
			}
			threads, err := parseThreadList(body)
			if err != nil {
				return nil, false, err
			}
			attach(threads)
			if len(threads) > 0 {
				return threads, parentIdx < len(parents), nil
			}
		}
		return nil, false, nil
	})
}

func parseThreadList(body []byte) ([]*domain.Channel, error) {
	var wire struct {
		Threads []json.RawMessage `json:"threads"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse thread list: %w", err)
	}
	threads := make([]*domain.Channel, 0, len(wire.Threads))
	for _, raw := range wire.Threads {
		th, err := domain.ParseChannel(raw)
		if err != nil {
			return nil, err
		}
		threads = append(threads, th)
	}
	return threads, nil
}
