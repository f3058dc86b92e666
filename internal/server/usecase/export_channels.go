// Package usecase инкапсулирует сценарии работы сервера выгрузок.
package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

// Exporter выгружает один канал.
type Exporter interface {
	Export(ctx context.Context, req services.ExportRequest, onProgress func(float64)) (*services.ExportResult, error)
}

// ExportChannelsUseCase выгружает набор каналов с ограниченным
// параллелизмом.
type ExportChannelsUseCase struct {
	exporter    Exporter
	parallelism int
	log         *slog.Logger
}

// NewExportChannelsUseCase создает сценарий выгрузки каналов.
func NewExportChannelsUseCase(exporter Exporter, parallelism int, log *slog.Logger) *ExportChannelsUseCase {
	if parallelism <= 0 {
		parallelism = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExportChannelsUseCase{
		exporter:    exporter,
		parallelism: parallelism,
		log:         log,
	}
}

// ExportChannels выгружает каждый канал из списка запросов.
// Каналы с нефатальными ошибками, включая пустые, пропускаются с
// предупреждением, первая фатальная ошибка отменяет оставшиеся
// выгрузки. Порядок результатов совпадает с порядком запросов,
// пропущенные каналы в результаты не попадают.
func (uc *ExportChannelsUseCase) ExportChannels(ctx context.Context, reqs []services.ExportRequest) ([]*services.ExportResult, error) {
	results := make([]*services.ExportResult, len(reqs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.parallelism)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			uc.log.InfoContext(gctx, "Exporting channel", "channel_id", req.ChannelID.String())

			result, err := uc.exporter.Export(gctx, req, nil)
			if err != nil {
				if errors.Is(err, domain.ErrChannelEmpty) {
					uc.log.WarnContext(gctx, "Channel is empty, skipping", "channel_id", req.ChannelID.String())
					return nil
				}
				// Нефатальная доменная ошибка относится к одному каналу
				// и не должна срывать остальные выгрузки.
				var derr *domain.Error
				if errors.As(err, &derr) && !derr.Fatal {
					uc.log.WarnContext(gctx, "Channel export failed, skipping", "channel_id", req.ChannelID.String(), "error", err)
					return nil
				}
				return err
			}

			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*services.ExportResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}
