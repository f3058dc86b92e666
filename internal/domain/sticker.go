package domain

import "fmt"

// StickerFormat — формат изображения стикера.
type StickerFormat int

const (
	StickerFormatPNG    StickerFormat = 1
	StickerFormatAPNG   StickerFormat = 2
	StickerFormatLottie StickerFormat = 3
	StickerFormatGIF    StickerFormat = 4
)

// Sticker — стикер, прикрепленный к сообщению.
type Sticker struct {
	ID     Snowflake
	Name   string
	Format StickerFormat
}

// SourceURL возвращает URL файла стикера на CDN.
func (s Sticker) SourceURL() string {
	ext := "png"
	switch s.Format {
	case StickerFormatLottie:
		ext = "json"
	case StickerFormatGIF:
		ext = "gif"
	}
	return fmt.Sprintf("%s/stickers/%s.%s", cdnBaseURL, s.ID, ext)
}

// stickerWire — формат стикера на проводе.
type stickerWire struct {
	ID         Snowflake `json:"id"`
	Name       string    `json:"name"`
	FormatType int       `json:"format_type"`
}

func stickerFromWire(w stickerWire) Sticker {
	return Sticker{ID: w.ID, Name: w.Name, Format: StickerFormat(w.FormatType)}
}

// Reaction — агрегированная реакция на сообщение.
type Reaction struct {
	Emoji Emoji
	Count int
}

// reactionWire — формат реакции на проводе.
type reactionWire struct {
	Emoji emojiWire `json:"emoji"`
	Count int       `json:"count"`
}

func reactionFromWire(w reactionWire) Reaction {
	return Reaction{Emoji: emojiFromWire(w.Emoji), Count: w.Count}
}
