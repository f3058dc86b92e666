package exporter

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"discord-chat-archiver/internal/core/services"
	"discord-chat-archiver/internal/domain"
)

// invalidPathChars — символы, запрещенные в именах файлов хотя бы на
// одной из поддерживаемых платформ.
const invalidPathChars = `\/:*?"<>|`

// escapeFileName замещает запрещенные символы, чтобы имя из данных
// гильдии было валидным именем файла.
func escapeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidPathChars, r) {
			return '_'
		}
		return r
	}, s)
}

// ExpandPathTemplate подставляет в шаблон пути значения выгрузки.
// Поддерживаемые токены: %g и %G — идентификатор и имя гильдии,
// %t и %T — идентификатор и имя канала, %c и %C — идентификатор и имя
// родительской категории, %p и %P — позиции канала и категории,
// %a и %b — нижняя и верхняя границы диапазона, %d — текущая дата,
// %% — литеральный процент.
func ExpandPathTemplate(template string, ec *services.ExportContext) string {
	channel := ec.Channel
	var parent *domain.Channel
	if channel != nil {
		parent = channel.Parent
	}

	datestamp := func(s domain.Snowflake) string {
		if s.IsZero() {
			return ""
		}
		return s.Time().Format("2006-01-02")
	}

	var sb strings.Builder
	for i := 0; i < len(template); i++ {
		if template[i] != '%' || i+1 >= len(template) {
			sb.WriteByte(template[i])
			continue
		}
		i++
		switch template[i] {
		case 'g':
			sb.WriteString(ec.Guild.ID.String())
		case 'G':
			sb.WriteString(escapeFileName(ec.Guild.Name))
		case 't':
			sb.WriteString(channel.ID.String())
		case 'T':
			sb.WriteString(escapeFileName(channel.Name))
		case 'c':
			if parent != nil {
				sb.WriteString(parent.ID.String())
			}
		case 'C':
			if parent != nil {
				sb.WriteString(escapeFileName(parent.Name))
			}
		case 'p':
			sb.WriteString(strconv.Itoa(channel.Position))
		case 'P':
			if parent != nil {
				sb.WriteString(strconv.Itoa(parent.Position))
			}
		case 'a':
			sb.WriteString(datestamp(ec.Request.After))
		case 'b':
			sb.WriteString(datestamp(ec.Request.Before))
		case 'd':
			sb.WriteString(time.Now().Format("2006-01-02"))
		case '%':
			sb.WriteByte('%')
		default:
			sb.WriteByte('%')
			sb.WriteByte(template[i])
		}
	}
	return sb.String()
}

// ResolveOutputPath превращает путь запроса в конкретный путь файла.
// Путь, указывающий на каталог, дополняется именем по умолчанию, путь
// без расширения получает расширение формата.
func ResolveOutputPath(outputPath string, format Format, ec *services.ExportContext) string {
	expanded := ExpandPathTemplate(outputPath, ec)

	isDir := expanded == "" || strings.HasSuffix(expanded, "/") || strings.HasSuffix(expanded, string(os.PathSeparator))
	if !isDir {
		if info, err := os.Stat(expanded); err == nil && info.IsDir() {
			isDir = true
		}
	}
	if isDir {
		name := ec.Guild.Name + " - "
		if parent := ec.Channel.Parent; parent != nil {
			name += parent.Name + " - "
		}
		name += ec.Channel.Name
		name = escapeFileName(name) + " [" + ec.Channel.ID.String() + "]" +
			rangeSuffix(ec.Request.After, ec.Request.Before) + format.Extension()
		return filepath.Join(expanded, name)
	}

	if filepath.Ext(expanded) == "" {
		expanded += format.Extension()
	}
	return expanded
}

// rangeSuffix описывает границы диапазона в имени файла, чтобы выгрузки
// одного канала с разными диапазонами не перезаписывали друг друга.
func rangeSuffix(after, before domain.Snowflake) string {
	stamp := func(s domain.Snowflake) string {
		return s.Time().Format("2006-01-02")
	}
	switch {
	case !after.IsZero() && !before.IsZero():
		return " (" + stamp(after) + " to " + stamp(before) + ")"
	case !after.IsZero():
		return " (after " + stamp(after) + ")"
	case !before.IsZero():
		return " (before " + stamp(before) + ")"
	default:
		return ""
	}
}

// DefaultAssetsDirPath возвращает каталог медиа по умолчанию: путь
// файла выгрузки без расширения с суффиксом "_Files".
func DefaultAssetsDirPath(outputFilePath string) string {
	return strings.TrimSuffix(outputFilePath, filepath.Ext(outputFilePath)) + "_Files"
}

// partitionPath возвращает путь секции с номером: первая секция
// сохраняет исходное имя, последующие получают суффикс " [part N]"
// перед расширением.
func partitionPath(basePath string, index int) string {
	if index == 0 {
		return basePath
	}
	ext := filepath.Ext(basePath)
	stem := strings.TrimSuffix(basePath, ext)
	return stem + " [part " + strconv.Itoa(index+1) + "]" + ext
}
