package services

import (
	"context"

	"discord-chat-archiver/internal/discord"
	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/ports"
)

// MockDiscordClient - мок-реализация ports.DiscordClient для тестирования
type MockDiscordClient struct {
	TokenKindFunc               func() discord.TokenKind
	GetGuildFunc                func(ctx context.Context, id domain.Snowflake) (domain.Guild, error)
	GetChannelFunc              func(ctx context.Context, id domain.Snowflake) (*domain.Channel, error)
	GetGuildChannelsFunc        func(ctx context.Context, guildID domain.Snowflake) ([]*domain.Channel, error)
	GetGuildRolesFunc           func(ctx context.Context, guildID domain.Snowflake) ([]domain.Role, error)
	TryGetUserFunc              func(ctx context.Context, id domain.Snowflake) (*domain.User, error)
	TryGetGuildMemberFunc       func(ctx context.Context, guildID, userID domain.Snowflake) (*domain.Member, error)
	TryGetInviteFunc            func(ctx context.Context, code string) (*domain.Invite, error)
	GetMessagesFunc             func(channelID, after, before domain.Snowflake, onProgress func(float64)) *discord.Stream[domain.Message]
	GetReactionUsersFunc        func(ctx context.Context, channelID, messageID domain.Snowflake, emoji domain.Emoji, limit int) ([]domain.User, error)
}

func (m *MockDiscordClient) TokenKind() discord.TokenKind {
	if m.TokenKindFunc != nil {
		return m.TokenKindFunc()
	}
	return discord.TokenKindUser
}

func (m *MockDiscordClient) GetGuild(ctx context.Context, id domain.Snowflake) (domain.Guild, error) {
	if m.GetGuildFunc != nil {
		return m.GetGuildFunc(ctx, id)
	}
	if id.IsZero() {
		return domain.DirectMessagesGuild, nil
	}
	return domain.Guild{ID: id, Name: "Test Guild"}, nil
}

func (m *MockDiscordClient) GetChannel(ctx context.Context, id domain.Snowflake) (*domain.Channel, error) {
	if m.GetChannelFunc != nil {
		return m.GetChannelFunc(ctx, id)
	}
	return &domain.Channel{ID: id, Name: "test-channel"}, nil
}

func (m *MockDiscordClient) GetGuildChannels(ctx context.Context, guildID domain.Snowflake) ([]*domain.Channel, error) {
	if m.GetGuildChannelsFunc != nil {
		return m.GetGuildChannelsFunc(ctx, guildID)
	}
	return nil, nil
}

func (m *MockDiscordClient) GetGuildRoles(ctx context.Context, guildID domain.Snowflake) ([]domain.Role, error) {
	if m.GetGuildRolesFunc != nil {
		return m.GetGuildRolesFunc(ctx, guildID)
	}
	return nil, nil
}

func (m *MockDiscordClient) TryGetUser(ctx context.Context, id domain.Snowflake) (*domain.User, error) {
	if m.TryGetUserFunc != nil {
		return m.TryGetUserFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockDiscordClient) TryGetGuildMember(ctx context.Context, guildID, userID domain.Snowflake) (*domain.Member, error) {
	if m.TryGetGuildMemberFunc != nil {
		return m.TryGetGuildMemberFunc(ctx, guildID, userID)
	}
	return nil, nil
}

func (m *MockDiscordClient) TryGetInvite(ctx context.Context, code string) (*domain.Invite, error) {
	if m.TryGetInviteFunc != nil {
		return m.TryGetInviteFunc(ctx, code)
	}
	return nil, nil
}

func (m *MockDiscordClient) GetMessages(channelID, after, before domain.Snowflake, onProgress func(float64)) *discord.Stream[domain.Message] {
	if m.GetMessagesFunc != nil {
		return m.GetMessagesFunc(channelID, after, before, onProgress)
	}
	return streamOf[domain.Message](nil)
}

func (m *MockDiscordClient) GetMessageReactionUsers(ctx context.Context, channelID, messageID domain.Snowflake, emoji domain.Emoji, limit int) ([]domain.User, error) {
	if m.GetReactionUsersFunc != nil {
		return m.GetReactionUsersFunc(ctx, channelID, messageID, emoji, limit)
	}
	return nil, nil
}

// streamOf строит поток из готового среза.
func streamOf[T any](items []T) *discord.Stream[T] {
	served := false
	return discord.NewStream(func(ctx context.Context) ([]T, bool, error) {
		if served {
			return nil, false, nil
		}
		served = true
		return items, false, nil
	})
}

// MockMessageWriter - мок-реализация ports.MessageWriter для тестирования
type MockMessageWriter struct {
	Preambles  int
	Postambles int
	Messages   []domain.Message
	Closed     bool

	WriteMessageFunc func(ctx context.Context, message *domain.Message) error
}

func (m *MockMessageWriter) WritePreamble(ctx context.Context) error {
	m.Preambles++
	return nil
}

func (m *MockMessageWriter) WriteMessage(ctx context.Context, message *domain.Message) error {
	if m.WriteMessageFunc != nil {
		if err := m.WriteMessageFunc(ctx, message); err != nil {
			return err
		}
	}
	m.Messages = append(m.Messages, *message)
	return nil
}

func (m *MockMessageWriter) WritePostamble(ctx context.Context) error {
	m.Postambles++
	return nil
}

func (m *MockMessageWriter) Close() error {
	m.Closed = true
	return nil
}

func (m *MockMessageWriter) MessagesWritten() int64 {
	return int64(len(m.Messages))
}

func (m *MockMessageWriter) BytesWritten() (int64, error) {
	return 0, nil
}

func (m *MockMessageWriter) Paths() []string {
	return []string{"export.txt"}
}

// MockWriterFactory отдает заранее созданного писателя.
type MockWriterFactory struct {
	Writer *MockMessageWriter
}

func (f *MockWriterFactory) NewWriter(ctx context.Context, ec *ExportContext) (ports.MessageWriter, error) {
	return f.Writer, nil
}
