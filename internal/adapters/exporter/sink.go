package exporter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
	"discord-chat-archiver/internal/ports"
)

// formatWriter пишет содержимое одной секции в выбранном формате.
type formatWriter interface {
	writePreamble(ctx context.Context) error
	writeMessage(ctx context.Context, message *domain.Message) error
	writePostamble(ctx context.Context) error
	flush() error
}

// countingWriter подсчитывает байты до буферизации, чтобы предел
// объема секции проверялся без сброса буфера.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Factory создает секционированных писателей по параметрам запроса.
type Factory struct {
	log *slog.Logger
}

// NewFactory создает фабрику писателей.
func NewFactory(log *slog.Logger) *Factory {
	if log == nil {
		log = slog.Default()
	}
	return &Factory{log: log}
}

// NewWriter реализует services.WriterFactory.
func (f *Factory) NewWriter(ctx context.Context, ec *services.ExportContext) (ports.MessageWriter, error) {
	format, err := ParseFormat(ec.Request.Format)
	if err != nil {
		return nil, err
	}
	limit, err := ParsePartitionLimit(ec.Request.PartitionLimit)
	if err != nil {
		return nil, err
	}

	basePath := ResolveOutputPath(ec.Request.OutputPath, format, ec)
	if dir := filepath.Dir(basePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if ec.Request.ShouldDownloadAssets {
		assetsDir := ec.Request.AssetsDirPath
		if assetsDir == "" {
			assetsDir = DefaultAssetsDirPath(basePath)
		} else {
			assetsDir = ExpandPathTemplate(assetsDir, ec)
		}
		ec.SetAssetsDir(assetsDir)
	}

	sink := &PartitionedSink{
		ec:       ec,
		format:   format,
		limit:    limit,
		basePath: basePath,
		log:      f.log,
	}
	return sink, nil
}

// PartitionedSink — писатель, прозрачно разносящий выгрузку по
// нескольким файлам, когда секция достигает предела.
type PartitionedSink struct {
	ec       *services.ExportContext
	format   Format
	limit    PartitionLimit
	basePath string
	log      *slog.Logger

	index   int
	file    *os.File
	buf     *bufio.Writer
	counter *countingWriter
	inner   formatWriter

	partitionMessages int64
	totalMessages     int64
	closedBytes       int64
}

// Paths возвращает пути всех созданных секций.
func (s *PartitionedSink) Paths() []string {
	paths := make([]string, 0, s.index+1)
	for i := 0; i <= s.index; i++ {
		paths = append(paths, partitionPath(s.basePath, i))
	}
	return paths
}

func (s *PartitionedSink) openPartition(ctx context.Context) error {
	path := partitionPath(s.basePath, s.index)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	s.file = file
	s.buf = bufio.NewWriter(file)
	s.counter = &countingWriter{w: s.buf}

	inner, err := newFormatWriter(s.format, s.counter, s.ec)
	if err != nil {
		_ = file.Close()
		return err
	}
	s.inner = inner
	s.partitionMessages = 0

	s.log.DebugContext(ctx, "Opened export partition", "path", path, "partition", s.index+1)
	return s.inner.writePreamble(ctx)
}

func (s *PartitionedSink) closePartition() error {
	if s.file == nil {
		return nil
	}
	if err := s.inner.flush(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	err := s.file.Close()
	s.closedBytes += s.counter.n
	s.file = nil
	return err
}

// WritePreamble открывает первую секцию и пишет ее преамбулу.
func (s *PartitionedSink) WritePreamble(ctx context.Context) error {
	return s.openPartition(ctx)
}

// WriteMessage пишет сообщение, перед этим перенося выгрузку в новую
// секцию, если текущая заполнена.
func (s *PartitionedSink) WriteMessage(ctx context.Context, message *domain.Message) error {
	if s.partitionMessages > 0 && s.limit.IsReached(s.partitionMessages, s.counter.n) {
		if err := s.inner.writePostamble(ctx); err != nil {
			return err
		}
		if err := s.closePartition(); err != nil {
			return err
		}
		s.index++
		if err := s.openPartition(ctx); err != nil {
			return err
		}
	}

	if err := s.inner.writeMessage(ctx, message); err != nil {
		return err
	}
	s.partitionMessages++
	s.totalMessages++
	return nil
}

// WritePostamble завершает последнюю секцию.
func (s *PartitionedSink) WritePostamble(ctx context.Context) error {
	return s.inner.writePostamble(ctx)
}

// Close сбрасывает буферы и закрывает текущий файл.
func (s *PartitionedSink) Close() error {
	return s.closePartition()
}

// MessagesWritten возвращает суммарное число сообщений во всех секциях.
func (s *PartitionedSink) MessagesWritten() int64 {
	return s.totalMessages
}

// BytesWritten возвращает суммарный объем всех секций.
func (s *PartitionedSink) BytesWritten() (int64, error) {
	total := s.closedBytes
	if s.file != nil {
		total += s.counter.n
	}
	return total, nil
}

// newFormatWriter создает писателя секции для формата.
func newFormatWriter(format Format, w io.Writer, ec *services.ExportContext) (formatWriter, error) {
	switch format {
	case FormatPlainText:
		return newPlainTextWriter(w, ec), nil
	case FormatCSV:
		return newCSVWriter(w, ec), nil
	case FormatJSON:
		return newJSONWriter(w, ec), nil
	case FormatHTMLDark:
		return newHTMLWriter(w, ec, true), nil
	case FormatHTMLLight:
		return newHTMLWriter(w, ec, false), nil
	default:
		return nil, fmt.Errorf("no writer for format %v", format)
	}
}
