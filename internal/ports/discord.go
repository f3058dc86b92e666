package ports

import (
	"context"

	"discord-chat-archiver/internal/discord"
	"discord-chat-archiver/internal/domain"
)

// DiscordClient определяет публичный интерфейс для клиента Discord API.
type DiscordClient interface {
	TokenKind() discord.TokenKind
	GetGuild(ctx context.Context, id domain.Snowflake) (domain.Guild, error)
	GetChannel(ctx context.Context, id domain.Snowflake) (*domain.Channel, error)
	GetGuildChannels(ctx context.Context, guildID domain.Snowflake) ([]*domain.Channel, error)
	GetGuildRoles(ctx context.Context, guildID domain.Snowflake) ([]domain.Role, error)
	TryGetUser(ctx context.Context, id domain.Snowflake) (*domain.User, error)
	TryGetGuildMember(ctx context.Context, guildID, userID domain.Snowflake) (*domain.Member, error)
	TryGetInvite(ctx context.Context, code string) (*domain.Invite, error)
	GetMessages(channelID, after, before domain.Snowflake, onProgress func(float64)) *discord.Stream[domain.Message]
	GetMessageReactionUsers(ctx context.Context, channelID, messageID domain.Snowflake, emoji domain.Emoji, limit int) ([]domain.User, error)
}
