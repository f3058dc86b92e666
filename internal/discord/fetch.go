package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"discord-chat-archiver/internal/domain"
)

// get выполняет запрос и требует успешный статус.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.getQuery(ctx, path, nil)
}

func (c *Client) getQuery(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, status, err := c.getJSON(ctx, path, query)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, domain.WrapFatalError(
			fmt.Sprintf("request to %s returned status %d", path, status), nil)
	}
	return body, nil
}

// tryGet выполняет запрос; 403 и 404 — не ошибка, а отсутствие результата.
func (c *Client) tryGet(ctx context.Context, path string) ([]byte, error) {
	return c.tryGetQuery(ctx, path, nil)
}

func (c *Client) tryGetQuery(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, status, err := c.getJSON(ctx, path, query)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return body, nil
	case http.StatusForbidden, http.StatusNotFound:
		return nil, nil
	default:
		return nil, domain.WrapFatalError(
			fmt.Sprintf("request to %s returned status %d", path, status), nil)
	}
}

// GetGuild возвращает гильдию. Нулевой идентификатор дает
// гильдию-заглушку личных сообщений.
func (c *Client) GetGuild(ctx context.Context, id domain.Snowflake) (domain.Guild, error) {
	if id.IsZero() {
		return domain.DirectMessagesGuild, nil
	}
	body, err := c.get(ctx, "/guilds/"+id.String())
	if err != nil {
		return domain.Guild{}, err
	}
	return domain.ParseGuild(body)
}

// GetChannel возвращает канал с разрешенной цепочкой родителей
// (не глубже двух уровней: категория → канал → тред).
func (c *Client) GetChannel(ctx context.Context, id domain.Snowflake) (*domain.Channel, error) {
	channel, err := c.fetchChannel(ctx, id)
	if err != nil {
		return nil, err
	}

	cur := channel
	for depth := 0; depth < 2 && !cur.ParentID.IsZero(); depth++ {
		parent, err := c.fetchChannel(ctx, cur.ParentID)
		if err != nil {
			// Родитель может быть недоступен; канал самодостаточен.
			c.log.DebugContext(ctx, "Failed to resolve parent channel", "channel_id", cur.ID, "error", err)
			break
		}
		cur.Parent = parent
		cur = parent
	}
	return channel, nil
}

func (c *Client) fetchChannel(ctx context.Context, id domain.Snowflake) (*domain.Channel, error) {
	body, err := c.get(ctx, "/channels/"+id.String())
	if err != nil {
		return nil, err
	}
	return domain.ParseChannel(body)
}

// GetApplication возвращает приложение текущего бот-токена.
func (c *Client) GetApplication(ctx context.Context) (domain.Application, error) {
	body, err := c.get(ctx, "/oauth2/applications/@me")
	if err != nil {
		return domain.Application{}, err
	}
	return domain.ParseApplication(body)
}

// TryGetUser возвращает пользователя либо nil, когда он недоступен.
func (c *Client) TryGetUser(ctx context.Context, id domain.Snowflake) (*domain.User, error) {
	body, err := c.tryGet(ctx, "/users/"+id.String())
	if err != nil || body == nil {
		return nil, err
	}
	u, err := domain.ParseUser(body)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// TryGetGuildMember возвращает участника гильдии либо nil,
// когда пользователь покинул гильдию или скрыт.
func (c *Client) TryGetGuildMember(ctx context.Context, guildID, userID domain.Snowflake) (*domain.Member, error) {
	if guildID.IsZero() {
		return nil, nil
	}
	body, err := c.tryGet(ctx, "/guilds/"+guildID.String()+"/members/"+userID.String())
	if err != nil || body == nil {
		return nil, err
	}
	m, err := domain.ParseMember(body, guildID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// TryGetInvite возвращает приглашение либо nil, когда код невалиден.
func (c *Client) TryGetInvite(ctx context.Context, code string) (*domain.Invite, error) {
	body, err := c.tryGet(ctx, "/invites/"+code)
	if err != nil || body == nil {
		return nil, err
	}
	inv, err := domain.ParseInvite(body)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetGuildChannels возвращает все каналы гильдии с проставленными
// родительскими категориями.
func (c *Client) GetGuildChannels(ctx context.Context, guildID domain.Snowflake) ([]*domain.Channel, error) {
	body, err := c.get(ctx, "/guilds/"+guildID.String()+"/channels")
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse guild channels: %w", err)
	}

	channels := make([]*domain.Channel, 0, len(raws))
	byID := make(map[domain.Snowflake]*domain.Channel, len(raws))
	for _, raw := range raws {
		ch, err := domain.ParseChannel(raw)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
		byID[ch.ID] = ch
	}
	for _, ch := range channels {
		if parent, ok := byID[ch.ParentID]; ok {
			ch.Parent = parent
		}
	}
	return channels, nil
}

// GetGuildRoles возвращает все роли гильдии.
func (c *Client) GetGuildRoles(ctx context.Context, guildID domain.Snowflake) ([]domain.Role, error) {
	if guildID.IsZero() {
		return nil, nil
	}
	body, err := c.get(ctx, "/guilds/"+guildID.String()+"/roles")
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse guild roles: %w", err)
	}

	roles := make([]domain.Role, 0, len(raws))
	for _, raw := range raws {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// GetMessageReactionUsers возвращает страницу пользователей,
// поставивших реакцию на сообщение.
func (c *Client) GetMessageReactionUsers(ctx context.Context, channelID, messageID domain.Snowflake, emoji domain.Emoji, limit int) ([]domain.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	reactionName := emoji.Name
	if emoji.IsCustom() {
		reactionName = emoji.Name + ":" + emoji.ID.String()
	}

	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s",
		channelID, messageID, url.PathEscape(reactionName))
	body, err := c.tryGetQuery(ctx, path, url.Values{"limit": {strconv.Itoa(limit)}})
	if err != nil || body == nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("failed to parse reaction users: %w", err)
	}

	users := make([]domain.User, 0, len(raws))
	for _, raw := range raws {
		u, err := domain.ParseUser(raw)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
