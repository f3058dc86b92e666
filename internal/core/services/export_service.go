package services

import (
	"context"
	"fmt"
	"log/slog"

	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/filter"
	"discord-chat-archiver/internal/ports"
)

// ExportRequest описывает одну выгрузку канала.
type ExportRequest struct {
	ChannelID domain.Snowflake
	After     domain.Snowflake
	Before    domain.Snowflake

	Format         string
	OutputPath     string
	PartitionLimit string
	Filter         filter.MessageFilter

	ShouldFormatMarkdown      bool
	ShouldDownloadAssets      bool
	ShouldReuseAssets         bool
	AssetsDirPath             string
	Locale                    string
	IsUTCNormalizationEnabled bool
}

// ExportResult — итог выгрузки одного канала.
type ExportResult struct {
	Guild    domain.Guild
	Channel  *domain.Channel
	Messages int64
	Bytes    int64
	Files    []string
}

// WriterFactory создает писателя выбранного формата для контекста выгрузки.
type WriterFactory interface {
	NewWriter(ctx context.Context, ec *ExportContext) (ports.MessageWriter, error)
}

// ExportConfig хранит конфигурацию ExportService.
type ExportConfig struct {
	// BatchSize — размер пакета сообщений между записями.
	BatchSize int
	// MemberPoolSize — количество одновременных воркеров разрешения участников.
	MemberPoolSize int
}

// ExportOption — функциональная опция для настройки ExportService.
type ExportOption func(*ExportService)

// WithBatchSize устанавливает размер пакета сообщений.
func WithBatchSize(n int) ExportOption {
	return func(s *ExportService) {
		if n > 0 {
			s.config.BatchSize = n
		}
	}
}

// WithMemberPoolSize устанавливает количество воркеров разрешения участников.
func WithMemberPoolSize(n int) ExportOption {
	return func(s *ExportService) {
		if n > 0 {
			s.config.MemberPoolSize = n
		}
	}
}

// WithAssetDownloader подключает скачивание медиа выгрузки.
func WithAssetDownloader(d ports.AssetDownloader) ExportOption {
	return func(s *ExportService) {
		s.assets = d
	}
}

// WithExportLogger устанавливает логгер для сервиса.
func WithExportLogger(l *slog.Logger) ExportOption {
	return func(s *ExportService) {
		if l != nil {
			s.log = l
		}
	}
}

// ExportService выгружает историю каналов в файлы выбранного формата.
// Сервис не хранит состояние между выгрузками и безопасен для
// одновременного использования.
type ExportService struct {
	client  ports.DiscordClient
	writers WriterFactory
	assets  ports.AssetDownloader
	config  ExportConfig
	log     *slog.Logger
}

// NewExportService создает ExportService с использованием функциональных опций.
func NewExportService(client ports.DiscordClient, writers WriterFactory, opts ...ExportOption) *ExportService {
	s := &ExportService{
		client:  client,
		writers: writers,
		config: ExportConfig{
			BatchSize:      50,
			MemberPoolSize: 10,
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export выгружает историю одного канала. Прогресс, если onProgress задан,
// сообщается долей в пределах [0, 1].
func (s *ExportService) Export(ctx context.Context, req ExportRequest, onProgress func(float64)) (*ExportResult, error) {
	channel, err := s.client.GetChannel(ctx, req.ChannelID)
	if err != nil {
		return nil, s.wrapError(req.ChannelID, err)
	}
	if channel.Kind == domain.ChannelKindGuildForum {
		return nil, s.wrapError(req.ChannelID, domain.ErrUnsupportedChannel)
	}

	guild, err := s.client.GetGuild(ctx, channel.GuildID)
	if err != nil {
		return nil, s.wrapError(req.ChannelID, err)
	}

	s.log.InfoContext(ctx, "Starting channel export",
		"guild", guild.Name,
		"channel", channel.HierarchicalName(),
		"format", req.Format,
	)

	ec := NewExportContext(req, guild, channel, s.client, s.assets, s.log)
	if err := ec.populateGuild(ctx); err != nil {
		return nil, s.wrapError(req.ChannelID, err)
	}

	writer, err := s.writers.NewWriter(ctx, ec)
	if err != nil {
		return nil, s.wrapError(req.ChannelID, err)
	}

	exportErr := s.exportMessages(ctx, ec, writer, onProgress)

	if closeErr := writer.Close(); closeErr != nil && exportErr == nil {
		exportErr = closeErr
	}

	result := &ExportResult{
		Guild:    guild,
		Channel:  channel,
		Messages: writer.MessagesWritten(),
		Files:    writer.Paths(),
	}
	if n, err := writer.BytesWritten(); err == nil {
		result.Bytes = n
	}

	if exportErr != nil {
		return result, s.wrapError(req.ChannelID, exportErr)
	}

	s.log.InfoContext(ctx, "Channel export finished",
		"channel", channel.HierarchicalName(),
		"messages", result.Messages,
	)
	return result, nil
}

// exportMessages прокачивает поток сообщений через фильтр и писателя
// пакетами. Пустой канал дает файл с преамбулой и ErrChannelEmpty.
func (s *ExportService) exportMessages(ctx context.Context, ec *ExportContext, writer ports.MessageWriter, onProgress func(float64)) error {
	if err := writer.WritePreamble(ctx); err != nil {
		return err
	}

	messageFilter := ec.Request.Filter
	if messageFilter == nil {
		messageFilter = filter.Null
	}

	empty := ec.Channel.IsEmpty() ||
		!ec.Channel.MayHaveMessagesAfter(ec.Request.After) ||
		(!ec.Request.Before.IsZero() && !ec.Channel.MayHaveMessagesBefore(ec.Request.Before))
	if !empty {
		stream := s.client.GetMessages(ec.Channel.ID, ec.Request.After, ec.Request.Before, onProgress)

		batch := make([]domain.Message, 0, s.config.BatchSize)
		for stream.Next(ctx) {
			message := stream.Current()
			if !messageFilter.Matches(&message) {
				continue
			}
			batch = append(batch, message)
			if len(batch) >= s.config.BatchSize {
				if err := s.writeBatch(ctx, ec, writer, batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
		if err := stream.Err(); err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := s.writeBatch(ctx, ec, writer, batch); err != nil {
				return err
			}
		}
	}

	if err := writer.WritePostamble(ctx); err != nil {
		return err
	}

	if writer.MessagesWritten() == 0 {
		return domain.ErrChannelEmpty
	}
	return nil
}

// writeBatch разрешает участников, упомянутых пакетом, и записывает пакет.
func (s *ExportService) writeBatch(ctx context.Context, ec *ExportContext, writer ports.MessageWriter, batch []domain.Message) error {
	var referenced []domain.User
	for i := range batch {
		referenced = append(referenced, batch[i].GetReferencedUsers()...)
	}
	if err := ec.PopulateMembers(ctx, referenced, s.config.MemberPoolSize); err != nil {
		return err
	}

	for i := range batch {
		if err := writer.WriteMessage(ctx, &batch[i]); err != nil {
			return fmt.Errorf("failed to write message %s: %w", batch[i].ID, err)
		}
	}
	return nil
}

// wrapError дополняет ошибку идентификатором канала, сохраняя фатальность.
func (s *ExportService) wrapError(channelID domain.Snowflake, err error) error {
	message := fmt.Sprintf("failed to export channel %s", channelID)
	if domain.IsFatal(err) {
		return domain.WrapFatalError(message, err)
	}
	return domain.WrapError(message, err)
}
