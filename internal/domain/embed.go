package domain

import (
	"net/url"
	"strings"
	"time"
)

// EmbedAuthor — автор встраивания.
type EmbedAuthor struct {
	Name    string
	URL     string
	IconURL string
}

// EmbedField — поле встраивания.
type EmbedField struct {
	Name     string
	Value    string
	IsInline bool
}

// EmbedFooter — подвал встраивания.
type EmbedFooter struct {
	Text    string
	IconURL string
}

// EmbedImage — изображение, миниатюра или видео встраивания.
type EmbedImage struct {
	URL    string
	Width  *int
	Height *int
}

// Embed — встраивание (embed) сообщения.
// Поле Images — список: нормализация может слить несколько изображений
// одного поста в одно встраивание.
type Embed struct {
	Title       string
	URL         string
	Timestamp   *time.Time
	Color       *Color
	Author      *EmbedAuthor
	Description string
	Fields      []EmbedField
	Thumbnail   *EmbedImage
	Images      []EmbedImage
	Video       *EmbedImage
	Footer      *EmbedFooter
}

// singleImageHosts — хосты, у которых один пост порождает отдельное
// встраивание на каждое изображение. Такие встраивания сливаются.
var singleImageHosts = map[string]struct{}{
	"twitter.com": {},
	"x.com":       {},
}

func isSingleImageHost(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	_, ok := singleImageHosts[host]
	return ok
}

// isImageOnly сообщает, что встраивание несет только изображение:
// кандидат на поглощение при нормализации.
func (e Embed) isImageOnly() bool {
	return e.Title == "" && e.Description == "" && len(e.Fields) == 0 && len(e.Images) > 0
}

// NormalizeEmbeds сливает последовательные встраивания одного поста:
// если A ссылается на хост "одно изображение на встраивание", а следующее
// B несет только изображение с тем же URL, A поглощает изображения B.
// Операция идемпотентна.
func NormalizeEmbeds(embeds []Embed) []Embed {
	if len(embeds) < 2 {
		return embeds
	}

	result := make([]Embed, 0, len(embeds))
	for _, e := range embeds {
		if len(result) > 0 {
			last := &result[len(result)-1]
			if last.URL != "" && last.URL == e.URL && isSingleImageHost(last.URL) && e.isImageOnly() {
				last.Images = append(last.Images, e.Images...)
				continue
			}
		}
		result = append(result, e)
	}
	return result
}

// embedWire — формат встраивания на проводе.
type embedWire struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Timestamp   *string `json:"timestamp"`
	Color       uint32  `json:"color"`
	Description string  `json:"description"`
	Author      *struct {
		Name    string `json:"name"`
		URL     string `json:"url"`
		IconURL string `json:"icon_url"`
	} `json:"author"`
	Fields []struct {
		Name   string `json:"name"`
		Value  string `json:"value"`
		Inline bool   `json:"inline"`
	} `json:"fields"`
	Thumbnail *embedImageWire `json:"thumbnail"`
	Image     *embedImageWire `json:"image"`
	Video     *embedImageWire `json:"video"`
	Footer    *struct {
		Text    string `json:"text"`
		IconURL string `json:"icon_url"`
	} `json:"footer"`
}

type embedImageWire struct {
	URL    string `json:"url"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

func embedFromWire(w embedWire) Embed {
	e := Embed{
		Title:       w.Title,
		URL:         w.URL,
		Color:       NewColor(w.Color),
		Description: w.Description,
	}

	if w.Timestamp != nil {
		if t, err := time.Parse(time.RFC3339, *w.Timestamp); err == nil {
			t = t.UTC()
			e.Timestamp = &t
		}
	}
	if w.Author != nil {
		e.Author = &EmbedAuthor{Name: w.Author.Name, URL: w.Author.URL, IconURL: w.Author.IconURL}
	}
	for _, f := range w.Fields {
		e.Fields = append(e.Fields, EmbedField{Name: f.Name, Value: f.Value, IsInline: f.Inline})
	}
	if w.Thumbnail != nil {
		e.Thumbnail = &EmbedImage{URL: w.Thumbnail.URL, Width: w.Thumbnail.Width, Height: w.Thumbnail.Height}
	}
	if w.Image != nil {
		e.Images = []EmbedImage{{URL: w.Image.URL, Width: w.Image.Width, Height: w.Image.Height}}
	}
	if w.Video != nil {
		e.Video = &EmbedImage{URL: w.Video.URL, Width: w.Video.Width, Height: w.Video.Height}
	}
	if w.Footer != nil {
		e.Footer = &EmbedFooter{Text: w.Footer.Text, IconURL: w.Footer.IconURL}
	}
	return e
}
