// Package exporter реализует запись выгрузки: секционирование файлов,
// шаблоны путей и писателей конкретных форматов.
package exporter

import (
	"fmt"
	"strings"
)

// Format — формат файла выгрузки.
type Format int

const (
	FormatPlainText Format = iota
	FormatHTMLDark
	FormatHTMLLight
	FormatCSV
	FormatJSON
)

// ParseFormat разбирает имя формата без учета регистра.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plaintext", "txt", "":
		return FormatPlainText, nil
	case "htmldark":
		return FormatHTMLDark, nil
	case "htmllight":
		return FormatHTMLLight, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("unknown export format %q", s)
	}
}

// String возвращает каноническое имя формата.
func (f Format) String() string {
	switch f {
	case FormatPlainText:
		return "PlainText"
	case FormatHTMLDark:
		return "HtmlDark"
	case FormatHTMLLight:
		return "HtmlLight"
	case FormatCSV:
		return "Csv"
	case FormatJSON:
		return "Json"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// Extension возвращает расширение файла формата, с точкой.
func (f Format) Extension() string {
	switch f {
	case FormatHTMLDark, FormatHTMLLight:
		return ".html"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}
