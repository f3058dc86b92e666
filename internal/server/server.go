package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"discord-chat-archiver/internal/adapters/exporter"
	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/filter"
	"discord-chat-archiver/internal/pkg/config"
)

// taskTTL определяет, сколько хранится запись о завершенной задаче.
const taskTTL = 24 * time.Hour

// ExportRunner определяет интерфейс сценария, который выгружает каналы.
type ExportRunner interface {
	ExportChannels(ctx context.Context, reqs []services.ExportRequest) ([]*services.ExportResult, error)
}

// ExportRequestBody — тело запроса на запуск выгрузки.
type ExportRequestBody struct {
	ChannelIDs     []string `json:"channel_ids"`
	Format         string   `json:"format,omitempty"`
	After          string   `json:"after,omitempty"`
	Before         string   `json:"before,omitempty"`
	PartitionLimit string   `json:"partition_limit,omitempty"`
	MessageFilter  string   `json:"message_filter,omitempty"`
	FormatMarkdown *bool    `json:"format_markdown,omitempty"`
	DownloadAssets *bool    `json:"download_assets,omitempty"`
}

// Server представляет HTTP-сервер
type Server struct {
	HTTPServer *http.Server
	cfg        *config.Config
	taskStore  *TaskStore
	store      *S3Store
	runner     ExportRunner
	log        *slog.Logger
}

// New создает новый экземпляр Server. store может быть nil, тогда
// готовые файлы остаются только на диске.
func New(cfg *config.Config, runner ExportRunner, taskStore *TaskStore, store *S3Store, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		taskStore: taskStore,
		store:     store,
		runner:    runner,
		log:       log,
	}

	chiRouter := chi.NewRouter()

	// Промежуточное ПО
	chiRouter.Use(middleware.Logger)
	chiRouter.Use(middleware.Recoverer)

	// Конечная точка для проверки работоспособности
	chiRouter.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		// Доступность Discord API проверяется при запуске первой
		// выгрузкой. Если сервер отвечает, он готов принимать задачи.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Маршруты API
	chiRouter.Route("/api/v1", func(r chi.Router) {
		r.Post("/exports", s.handleStartExport)
		r.Get("/tasks/{taskID}", s.handleTaskStatus)
		r.Get("/tasks/{taskID}/result", s.handleTaskResult)
	})

	s.HTTPServer = &http.Server{
		Addr:         cfg.Address(),
		Handler:      chiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск тикера для очистки просроченных задач
	taskStore.StartCleanupTicker(context.Background(), 1*time.Hour)

	return s, nil
}

// handleStartExport принимает задачу на выгрузку каналов и запускает
// ее в фоне. Отвечает идентификатором задачи.
func (s *Server) handleStartExport(w http.ResponseWriter, r *http.Request) {
	var body ExportRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "failed to decode request body", http.StatusBadRequest)
		return
	}

	if len(body.ChannelIDs) == 0 {
		http.Error(w, "channel_ids is required", http.StatusBadRequest)
		return
	}

	taskID := uuid.NewString()

	reqs, err := s.buildRequests(taskID, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.taskStore.CreateTask(taskID, taskTTL)

	// Запуск выгрузки в горутине
	go s.runExport(taskID, reqs)

	writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
}

// buildRequests превращает тело запроса в запросы выгрузки, по одному
// на канал. Параметры, не заданные в запросе, берутся из конфигурации.
func (s *Server) buildRequests(taskID string, body ExportRequestBody) ([]services.ExportRequest, error) {
	exp := s.cfg.Export

	format := exp.Format
	if body.Format != "" {
		format = body.Format
	}
	parsedFormat, err := exporter.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	partitionLimit := exp.PartitionLimit
	if body.PartitionLimit != "" {
		partitionLimit = body.PartitionLimit
	}
	if partitionLimit != "" {
		if _, err := exporter.ParsePartitionLimit(partitionLimit); err != nil {
			return nil, err
		}
	}

	after, err := parseOptionalSnowflake(body.After, exp.After)
	if err != nil {
		return nil, fmt.Errorf("invalid after boundary: %w", err)
	}
	before, err := parseOptionalSnowflake(body.Before, exp.Before)
	if err != nil {
		return nil, fmt.Errorf("invalid before boundary: %w", err)
	}

	filterInput := exp.MessageFilter
	if body.MessageFilter != "" {
		filterInput = body.MessageFilter
	}
	messageFilter, err := filter.Parse(filterInput)
	if err != nil {
		return nil, fmt.Errorf("invalid message filter: %w", err)
	}

	formatMarkdown := exp.ShouldFormatMarkdown
	if body.FormatMarkdown != nil {
		formatMarkdown = *body.FormatMarkdown
	}
	downloadAssets := exp.ShouldDownloadAssets
	if body.DownloadAssets != nil {
		downloadAssets = *body.DownloadAssets
	}

	// Каждая задача пишет в собственный каталог, чтобы параллельные
	// задачи не перезаписывали файлы друг друга.
	// Пустой каталог медиа остается пустым: фабрика писателей выведет
	// его из итогового пути выгрузки.
	outputDir := filepath.Join(exp.OutputPath, taskID)
	assetsDir := exp.AssetsDirPath

	reqs := make([]services.ExportRequest, 0, len(body.ChannelIDs))
	for _, raw := range body.ChannelIDs {
		channelID, err := domain.ParseSnowflake(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid channel ID %q: %w", raw, err)
		}
		reqs = append(reqs, services.ExportRequest{
			ChannelID:      channelID,
			After:          after,
			Before:         before,
			Format:         parsedFormat.String(),
			OutputPath:     outputDir,
			PartitionLimit: partitionLimit,
			Filter:         messageFilter,

			ShouldFormatMarkdown:      formatMarkdown,
			ShouldDownloadAssets:      downloadAssets,
			ShouldReuseAssets:         exp.ShouldReuseAssets,
			AssetsDirPath:             assetsDir,
			Locale:                    exp.Locale,
			IsUTCNormalizationEnabled: exp.UTCNormalization,
		})
	}
	return reqs, nil
}

// runExport выполняет задачу выгрузки, собирает сводный отчет и при
// настроенном хранилище выгружает готовые файлы в S3.
func (s *Server) runExport(taskID string, reqs []services.ExportRequest) {
	s.taskStore.UpdateTaskStatus(taskID, TaskStatusProcessing)

	ctx := context.Background()

	results, err := s.runner.ExportChannels(ctx, reqs)
	if err != nil {
		s.log.Error("Export task failed", "task_id", taskID, "error", err)
		s.taskStore.UpdateTaskError(taskID, err.Error())
		return
	}

	summaries := make([]ExportSummary, 0, len(results))
	for _, result := range results {
		summary := ExportSummary{
			GuildName:   result.Guild.Name,
			ChannelID:   result.Channel.ID.String(),
			ChannelName: result.Channel.Name,
			Messages:    result.Messages,
			Bytes:       result.Bytes,
			Files:       result.Files,
		}
		if s.store != nil {
			summary.ObjectKeys = s.uploadFiles(ctx, taskID, result.Files)
		}
		summaries = append(summaries, summary)
	}

	reportKey := s.buildReport(ctx, taskID, results)

	if err := s.taskStore.UpdateTaskResult(taskID, summaries, reportKey); err != nil {
		s.log.Error("Failed to store task result", "task_id", taskID, "error", err)
	}
}

// uploadFiles выгружает файлы одной выгрузки в S3. Ошибка выгрузки
// отдельного файла не фатальна, файл остается на диске.
func (s *Server) uploadFiles(ctx context.Context, taskID string, files []string) []string {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		objectKey := taskID + "/" + filepath.Base(file)
		key, err := s.store.UploadFile(ctx, objectKey, file)
		if err != nil {
			s.log.Warn("Failed to upload export file", "task_id", taskID, "file", file, "error", err)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// buildReport строит сводный XLSX-отчет по задаче и выгружает его в
// хранилище. Возвращает ключ объекта либо локальный путь отчета.
func (s *Server) buildReport(ctx context.Context, taskID string, results []*services.ExportResult) string {
	reportPath := filepath.Join(s.cfg.Export.OutputPath, taskID, "report.xlsx")
	if err := os.MkdirAll(filepath.Dir(reportPath), 0o755); err != nil {
		s.log.Warn("Failed to create report directory", "task_id", taskID, "error", err)
		return ""
	}
	if err := BuildRunReport(reportPath, results); err != nil {
		s.log.Warn("Failed to build run report", "task_id", taskID, "error", err)
		return ""
	}

	if s.store == nil {
		return reportPath
	}
	key, err := s.store.UploadFile(ctx, taskID+"/report.xlsx", reportPath)
	if err != nil {
		s.log.Warn("Failed to upload run report", "task_id", taskID, "error", err)
		return reportPath
	}
	return key
}

// handleTaskStatus отвечает текущим статусом задачи.
func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := s.taskStore.GetTask(taskID)
	if err != nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":       task.ID,
		"status":        task.Status,
		"error_message": task.ErrorMessage,
	})
}

// handleTaskResult отвечает итогами завершенной задачи.
func (s *Server) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	task, err := s.taskStore.GetTask(taskID)
	if err != nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	if task.Status != TaskStatusCompleted {
		http.Error(w, "task is not completed", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":    task.ID,
		"report_key": task.ReportKey,
		"exports":    task.Result,
	})
}

// parseOptionalSnowflake разбирает границу диапазона из тела запроса,
// падая обратно на значение из конфигурации.
func parseOptionalSnowflake(raw, fallback string) (domain.Snowflake, error) {
	if raw == "" {
		raw = fallback
	}
	if raw == "" {
		return 0, nil
	}
	return domain.ParseSnowflake(raw)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// ListenAndServe запускает HTTP-сервер
func (s *Server) ListenAndServe() error {
	return s.HTTPServer.ListenAndServe()
}

// Shutdown корректно завершает работу HTTP-сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")
	return s.HTTPServer.Shutdown(ctx)
}
