package server

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"discord-chat-archiver/internal/core/services"
)

const reportSheet = "Export"

// BuildRunReport собирает xlsx-отчет о выгрузке: по строке на канал
// и итоговая строка.
func BuildRunReport(path string, results []*services.ExportResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return fmt.Errorf("failed to rename report sheet: %w", err)
	}

	headers := []string{"Guild", "Channel", "Channel ID", "Messages", "Size"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(reportSheet, cell, h); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(reportSheet, "A1", "E1", headerStyle)
	}

	var totalMessages, totalBytes int64
	for i, res := range results {
		row := i + 2
		values := []any{
			res.Guild.Name,
			res.Channel.HierarchicalName(),
			res.Channel.ID.String(),
			res.Messages,
			humanize.Bytes(uint64(res.Bytes)),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(reportSheet, cell, v); err != nil {
				return err
			}
		}
		totalMessages += res.Messages
		totalBytes += res.Bytes
	}

	totalRow := len(results) + 2
	totals := []any{
		"Total",
		fmt.Sprintf("%d channel(s)", len(results)),
		"",
		totalMessages,
		humanize.Bytes(uint64(totalBytes)),
	}
	for col, v := range totals {
		cell, err := excelize.CoordinatesToCellName(col+1, totalRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(reportSheet, cell, v); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(reportSheet, "A", "C", 28)
	_ = f.SetCellValue(reportSheet, "G1", "Generated at")
	_ = f.SetCellValue(reportSheet, "H1", time.Now().UTC().Format(time.RFC3339))

	return f.SaveAs(path)
}
