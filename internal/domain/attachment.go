package domain

import (
	"path"
	"strings"
)

// Attachment — файл, прикрепленный к сообщению.
type Attachment struct {
	ID       Snowflake
	URL      string
	FileName string
	// FileSizeBytes — размер файла, как его сообщает API.
	FileSizeBytes int64
	Width         *int
	Height        *int
}

var (
	imageExtensions = map[string]struct{}{
		".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {},
	}
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".webm": {}, ".mov": {},
	}
	audioExtensions = map[string]struct{}{
		".mp3": {}, ".wav": {}, ".ogg": {}, ".flac": {}, ".m4a": {},
	}
)

func (a Attachment) extension() string {
	return strings.ToLower(path.Ext(a.FileName))
}

// IsImage сообщает, является ли вложение изображением (по расширению файла).
func (a Attachment) IsImage() bool {
	_, ok := imageExtensions[a.extension()]
	return ok
}

// IsVideo сообщает, является ли вложение видео.
func (a Attachment) IsVideo() bool {
	_, ok := videoExtensions[a.extension()]
	return ok
}

// IsAudio сообщает, является ли вложение звуковым файлом.
func (a Attachment) IsAudio() bool {
	_, ok := audioExtensions[a.extension()]
	return ok
}

// IsSpoiler сообщает, помечено ли вложение как спойлер.
// Клиент Discord кодирует это префиксом имени файла.
func (a Attachment) IsSpoiler() bool {
	return strings.HasPrefix(a.FileName, "SPOILER_")
}

// attachmentWire — формат вложения на проводе.
type attachmentWire struct {
	ID       Snowflake `json:"id"`
	URL      string    `json:"url"`
	FileName string    `json:"filename"`
	Size     int64     `json:"size"`
	Width    *int      `json:"width"`
	Height   *int      `json:"height"`
}

func attachmentFromWire(w attachmentWire) Attachment {
	return Attachment{
		ID:            w.ID,
		URL:           w.URL,
		FileName:      w.FileName,
		FileSizeBytes: w.Size,
		Width:         w.Width,
		Height:        w.Height,
	}
}
