// Команда exporter выгружает историю каналов Discord в файлы.
//
// Каналы задаются аргументами командной строки. Флаг -guild выгружает
// все доступные текстовые каналы сервера целиком.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"discord-chat-archiver/internal/adapters/exporter"
	"discord-chat-archiver/internal/cache"
	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/discord"
	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/filter"
	applog "discord-chat-archiver/internal/log"
	"discord-chat-archiver/internal/pkg/config"
	"discord-chat-archiver/internal/pkg/term"
	"discord-chat-archiver/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Флаги перекрывают конфигурацию и окружение.
	token := flag.String("token", cfg.Discord.Token, "Discord authentication token")
	guildID := flag.String("guild", "", "export every accessible text channel of the guild")
	allGuilds := flag.Bool("all", false, "export every accessible guild")
	withThreads := flag.Bool("threads", false, "include threads when exporting guilds")
	format := flag.String("format", cfg.Export.Format, "export format: plaintext, htmldark, htmllight, csv or json")
	output := flag.String("output", cfg.Export.OutputPath, "output file or directory")
	after := flag.String("after", cfg.Export.After, "only messages sent after this date or message ID")
	before := flag.String("before", cfg.Export.Before, "only messages sent before this date or message ID")
	partition := flag.String("partition", cfg.Export.PartitionLimit, "split output after this many messages or bytes, e.g. 1000 or 10mb")
	filterExpr := flag.String("filter", cfg.Export.MessageFilter, "only messages matching this filter expression")
	markdown := flag.Bool("markdown", cfg.Export.ShouldFormatMarkdown, "process markdown, mentions and emoji")
	media := flag.Bool("media", cfg.Export.ShouldDownloadAssets, "download referenced media content")
	reuseMedia := flag.Bool("reuse-media", cfg.Export.ShouldReuseAssets, "reuse previously downloaded media")
	mediaDir := flag.String("media-dir", cfg.Export.AssetsDirPath, "directory for downloaded media")
	locale := flag.String("locale", cfg.Export.Locale, "locale for formatting dates and numbers")
	utc := flag.Bool("utcnorm", cfg.Export.UTCNormalization, "normalize timestamps to UTC")
	parallel := flag.Int("parallel", cfg.Export.Parallelism, "how many channels to export at once")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := applog.NewMaskedLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	terminal := term.NewTerminal()
	if *token == "" {
		prompted, err := terminal.PromptToken()
		if err != nil {
			return err
		}
		*token = prompted
	}

	messageFilter, err := filter.Parse(*filterExpr)
	if err != nil {
		return fmt.Errorf("invalid filter expression: %w", err)
	}
	if _, err := exporter.ParseFormat(*format); err != nil {
		return err
	}
	if *partition != "" {
		if _, err := exporter.ParsePartitionLimit(*partition); err != nil {
			return err
		}
	}

	afterID, err := parseBoundary(*after)
	if err != nil {
		return fmt.Errorf("invalid after boundary: %w", err)
	}
	beforeID, err := parseBoundary(*before)
	if err != nil {
		return fmt.Errorf("invalid before boundary: %w", err)
	}

	client, err := discord.NewClient(ctx, *token, buildClientOptions(cfg, logger)...)
	if err != nil {
		return err
	}

	channelIDs, err := resolveChannels(ctx, client, *guildID, *allGuilds, *withThreads, flag.Args())
	if err != nil {
		return err
	}
	if len(channelIDs) == 0 {
		return fmt.Errorf("nothing to export, pass channel IDs or use -guild / -all")
	}

	var exportOpts []services.ExportOption
	exportOpts = append(exportOpts, services.WithExportLogger(logger))
	if *media {
		assets := cache.NewAssetStore(*mediaDir, *reuseMedia, cache.WithLogger(logger))
		exportOpts = append(exportOpts, services.WithAssetDownloader(assets))
	}

	writers := exporter.NewFactory(logger)
	exportSvc := services.NewExportService(client, writers, exportOpts...)
	runner := usecase.NewExportChannelsUseCase(exportSvc, *parallel, logger)

	reqs := make([]services.ExportRequest, 0, len(channelIDs))
	for _, id := range channelIDs {
		reqs = append(reqs, services.ExportRequest{
			ChannelID:      id,
			After:          afterID,
			Before:         beforeID,
			Format:         *format,
			OutputPath:     *output,
			PartitionLimit: *partition,
			Filter:         messageFilter,

			ShouldFormatMarkdown:      *markdown,
			ShouldDownloadAssets:      *media,
			ShouldReuseAssets:         *reuseMedia,
			AssetsDirPath:             *mediaDir,
			Locale:                    *locale,
			IsUTCNormalizationEnabled: *utc,
		})
	}

	fmt.Printf("Exporting %d channel(s)...\n", len(reqs))

	var results []*services.ExportResult
	if *parallel <= 1 && terminal.IsInteractive() {
		results, err = exportSequential(ctx, exportSvc, reqs)
	} else {
		results, err = runner.ExportChannels(ctx, reqs)
	}
	if err != nil {
		return err
	}

	exporter.NewConsoleReporter().Report(results)
	return nil
}

// exportSequential выгружает каналы по одному, печатая прогресс.
// Пустые каналы пропускаются, как и при параллельной выгрузке.
func exportSequential(ctx context.Context, svc *services.ExportService, reqs []services.ExportRequest) ([]*services.ExportResult, error) {
	results := make([]*services.ExportResult, 0, len(reqs))
	for i, req := range reqs {
		fmt.Printf("[%d/%d] channel %s: ", i+1, len(reqs), req.ChannelID)
		result, err := svc.Export(ctx, req, func(fraction float64) {
			fmt.Printf("\r[%d/%d] channel %s: %.1f%%", i+1, len(reqs), req.ChannelID, fraction*100)
		})
		if err != nil {
			if errors.Is(err, domain.ErrChannelEmpty) {
				fmt.Println("empty, skipped")
				continue
			}
			fmt.Println()
			return nil, err
		}
		fmt.Println("\rdone" + strings.Repeat(" ", 40))
		results = append(results, result)
	}
	return results, nil
}

// buildClientOptions собирает опции клиента Discord из конфигурации.
func buildClientOptions(cfg *config.Config, logger *slog.Logger) []discord.Option {
	opts := []discord.Option{discord.WithLogger(logger)}
	if pref, err := discord.ParseRateLimitPreference(cfg.Discord.RateLimitPreference); err == nil {
		opts = append(opts, discord.WithRateLimitPreference(pref))
	}
	return opts
}

// parseBoundary разбирает границу диапазона: дату или идентификатор
// сообщения. Пустая строка означает отсутствие границы.
func parseBoundary(s string) (domain.Snowflake, error) {
	if s == "" {
		return 0, nil
	}
	return domain.ParseSnowflake(s)
}

// resolveChannels собирает список каналов для выгрузки: явные
// аргументы, все текстовые каналы сервера при -guild и все доступные
// серверы при -all. С -threads к каналам добавляются треды.
func resolveChannels(ctx context.Context, client *discord.Client, guildID string, allGuilds, withThreads bool, args []string) ([]domain.Snowflake, error) {
	var ids []domain.Snowflake
	for _, raw := range args {
		id, err := domain.ParseSnowflake(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid channel ID %q: %w", raw, err)
		}
		ids = append(ids, id)
	}

	var guildIDs []domain.Snowflake
	if guildID != "" {
		gid, err := domain.ParseSnowflake(guildID)
		if err != nil {
			return nil, fmt.Errorf("invalid guild ID %q: %w", guildID, err)
		}
		guildIDs = append(guildIDs, gid)
	}
	if allGuilds {
		guilds, err := client.GetUserGuilds().Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, g := range guilds {
			guildIDs = append(guildIDs, g.ID)
		}
	}

	for _, gid := range guildIDs {
		channels, err := client.GetGuildChannels(ctx, gid)
		if err != nil {
			return nil, err
		}
		for _, ch := range channels {
			// Форумы не имеют собственной ленты сообщений, выгружаются
			// только их треды.
			if !ch.Kind.IsGuild() || ch.Kind.IsVoice() ||
				ch.Kind == domain.ChannelKindGuildCategory || ch.Kind == domain.ChannelKindGuildForum {
				continue
			}
			ids = append(ids, ch.ID)
		}
		if withThreads {
			threads, err := client.GetGuildThreads(gid, channels).Collect(ctx)
			if err != nil {
				return nil, err
			}
			for _, th := range threads {
				ids = append(ids, th.ID)
			}
		}
	}
	return ids, nil
}
