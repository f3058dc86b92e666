package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// PartitionLimit определяет момент переноса выгрузки в следующий файл.
type PartitionLimit interface {
	// IsReached сообщает, что текущая секция заполнена.
	IsReached(messages int64, bytes int64) bool
}

// nullLimit никогда не разбивает выгрузку.
type nullLimit struct{}

func (nullLimit) IsReached(int64, int64) bool { return false }

// NullLimit — отсутствие секционирования.
var NullLimit PartitionLimit = nullLimit{}

// messageCountLimit разбивает выгрузку по числу сообщений.
type messageCountLimit struct {
	limit int64
}

func (l messageCountLimit) IsReached(messages int64, _ int64) bool {
	return messages >= l.limit
}

// byteSizeLimit разбивает выгрузку по объему файла.
type byteSizeLimit struct {
	limit int64
}

func (l byteSizeLimit) IsReached(_ int64, bytes int64) bool {
	return bytes >= l.limit
}

// ParsePartitionLimit разбирает предел секции: пустая строка отключает
// секционирование, целое число задает предел в сообщениях, а число с
// единицей измерения ("10mb", "1gb") — в байтах с десятичными
// множителями.
func ParsePartitionLimit(s string) (PartitionLimit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NullLimit, nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return nil, fmt.Errorf("partition limit must be positive, got %d", n)
		}
		return messageCountLimit{limit: n}, nil
	}

	bytes, err := humanize.ParseBytes(s)
	if err != nil {
		return nil, fmt.Errorf("invalid partition limit %q: %w", s, err)
	}
	if bytes == 0 {
		return nil, fmt.Errorf("partition limit must be positive, got %q", s)
	}
	return byteSizeLimit{limit: int64(bytes)}, nil
}
