package exporter

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"discord-chat-archiver/internal/core/services"
)

// ConsoleReporter выводит сводку выгрузки в консоль.
type ConsoleReporter struct {
	w io.Writer
}

// NewConsoleReporter создает репортер, пишущий в стандартный вывод.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{w: os.Stdout}
}

// NewConsoleReporterTo создает репортер с произвольным приемником.
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{w: w}
}

// Report печатает таблицу результатов выгрузки.
// Ширина колонок учитывает полноширинные символы в именах каналов.
func (r *ConsoleReporter) Report(results []*services.ExportResult) {
	fmt.Fprintln(r.w, "--- Export Summary ---")
	if len(results) == 0 {
		fmt.Fprintln(r.w, "Nothing was exported.")
		return
	}

	nameWidth := 0
	for _, res := range results {
		if w := runewidth.StringWidth(res.Channel.HierarchicalName()); w > nameWidth {
			nameWidth = w
		}
	}

	var totalMessages, totalBytes int64
	for i, res := range results {
		name := runewidth.FillRight(res.Channel.HierarchicalName(), nameWidth)
		fmt.Fprintf(r.w, "%d. %s  %d message(s), %s\n",
			i+1, name, res.Messages, humanize.Bytes(uint64(res.Bytes)))
		totalMessages += res.Messages
		totalBytes += res.Bytes
	}
	fmt.Fprintf(r.w, "Total: %d message(s), %s in %d channel(s)\n",
		totalMessages, humanize.Bytes(uint64(totalBytes)), len(results))
}
