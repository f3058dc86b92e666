package ports

import (
	"context"

	"discord-chat-archiver/internal/domain"
)

// MessageWriter определяет интерфейс формат-специфичного писателя выгрузки.
// Жизненный цикл: WritePreamble, затем WriteMessage для каждого сообщения
// в хронологическом порядке, затем WritePostamble и Close.
type MessageWriter interface {
	WritePreamble(ctx context.Context) error
	WriteMessage(ctx context.Context, message *domain.Message) error
	WritePostamble(ctx context.Context) error
	Close() error

	// MessagesWritten возвращает число записанных сообщений.
	MessagesWritten() int64
	// BytesWritten возвращает объем записанных данных.
	BytesWritten() (int64, error)
	// Paths возвращает пути всех созданных файлов выгрузки.
	Paths() []string
}

// AssetDownloader определяет интерфейс для скачивания медиа выгрузки.
// ResolveURL скачивает ресурс в каталог dir и возвращает локальный путь
// либо исходный URL, когда скачивание отключено или не удалось.
type AssetDownloader interface {
	ResolveURL(ctx context.Context, dir, url string) string
}
