package exporter

import (
	"context"
	"io"
	"log/slog"
	"time"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/discord"
	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubClient — заглушка клиента API для тестов писателей: форматным
// писателям клиент нужен только для необязательных дозапросов.
type stubClient struct{}

func (stubClient) TokenKind() discord.TokenKind { return discord.TokenKindUser }

func (stubClient) GetGuild(context.Context, domain.Snowflake) (domain.Guild, error) {
	return domain.Guild{}, nil
}

func (stubClient) GetChannel(context.Context, domain.Snowflake) (*domain.Channel, error) {
	return nil, nil
}

func (stubClient) GetGuildChannels(context.Context, domain.Snowflake) ([]*domain.Channel, error) {
	return nil, nil
}

func (stubClient) GetGuildRoles(context.Context, domain.Snowflake) ([]domain.Role, error) {
	return nil, nil
}

func (stubClient) TryGetUser(context.Context, domain.Snowflake) (*domain.User, error) {
	return nil, nil
}

func (stubClient) TryGetGuildMember(context.Context, domain.Snowflake, domain.Snowflake) (*domain.Member, error) {
	return nil, nil
}

func (stubClient) TryGetInvite(context.Context, string) (*domain.Invite, error) {
	return nil, nil
}

func (stubClient) GetMessages(_, _, _ domain.Snowflake, _ func(float64)) *discord.Stream[domain.Message] {
	return discord.NewStream(func(context.Context) ([]domain.Message, bool, error) {
		return nil, false, nil
	})
}

func (stubClient) GetMessageReactionUsers(context.Context, domain.Snowflake, domain.Snowflake, domain.Emoji, int) ([]domain.User, error) {
	return nil, nil
}

// newTestContext собирает контекст выгрузки с тестовой гильдией и каналом.
func newTestContext(req services.ExportRequest) *services.ExportContext {
	return newTestContextWithAssets(req, nil)
}

func newTestContextWithAssets(req services.ExportRequest, assets ports.AssetDownloader) *services.ExportContext {
	guild := domain.Guild{ID: 10, Name: "Test Guild"}
	channel := &domain.Channel{
		ID:   100,
		Kind: domain.ChannelKindGuildText,
		Name: "general",
	}
	return services.NewExportContext(req, guild, channel, stubClient{}, assets, discardLogger())
}

func makeMessage(id int, author, content string) *domain.Message {
	return &domain.Message{
		ID:        domain.Snowflake(uint64(id) << 22),
		Kind:      domain.MessageKindDefault,
		Author:    domain.User{ID: domain.Snowflake(1000 + len(author)), Name: author, DisplayName: author},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
		Content:   content,
	}
}
