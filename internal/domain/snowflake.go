package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// snowflakeEpochMs — эпоха Discord в миллисекундах Unix (01.01.2015 00:00:00 UTC).
// Старшие 42 бита идентификатора кодируют миллисекунды, прошедшие с этого момента.
const snowflakeEpochMs = 1420070400000

// Snowflake — 64-битный монотонный идентификатор Discord.
// Нулевое значение означает "не задан". Полная 64-битная точность обязательна,
// поэтому значение никогда не проходит через числа с плавающей точкой.
type Snowflake uint64

// dateLayouts — форматы дат, принимаемые при разборе идентификатора из строки.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
}

// NewSnowflakeFromTime выводит идентификатор из момента времени.
// Младшие 22 бита (worker, process, sequence) остаются нулевыми.
func NewSnowflakeFromTime(t time.Time) Snowflake {
	ms := t.UnixMilli() - snowflakeEpochMs
	if ms < 0 {
		ms = 0
	}
	return Snowflake(uint64(ms) << 22)
}

// ParseSnowflake разбирает идентификатор из десятичной строки или даты ISO-8601.
func ParseSnowflake(s string) (Snowflake, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("snowflake string is empty")
	}

	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return Snowflake(v), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewSnowflakeFromTime(t), nil
		}
	}

	return 0, fmt.Errorf("value %q is not a valid snowflake or date", s)
}

// MustParseSnowflake — как ParseSnowflake, но паникует при ошибке.
// Используется в тестах и для констант.
func MustParseSnowflake(s string) Snowflake {
	v, err := ParseSnowflake(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsZero сообщает, задан ли идентификатор.
func (s Snowflake) IsZero() bool {
	return s == 0
}

// Time возвращает момент времени, закодированный в старших 42 битах.
func (s Snowflake) Time() time.Time {
	ms := int64(uint64(s)>>22) + snowflakeEpochMs
	return time.UnixMilli(ms).UTC()
}

// String возвращает десятичное представление идентификатора.
func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// MarshalJSON сериализует идентификатор в строку, как принято в протоколе Discord.
func (s Snowflake) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON принимает строку, число или null.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*s = 0
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if str == "" {
			*s = 0
			return nil
		}
		v, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid snowflake %q: %w", str, err)
		}
		*s = Snowflake(v)
		return nil
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid snowflake %s: %w", raw, err)
	}
	*s = Snowflake(v)
	return nil
}
