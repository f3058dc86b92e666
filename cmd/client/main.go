// Команда client запускает задачу выгрузки на сервере и ждет ее
// завершения, печатая итог по каждому каналу.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"discord-chat-archiver/internal/server"
)

func main() {
	var (
		serverAddr string
		format     string
		after      string
		before     string
		partition  string
		filterExpr string
	)
	flag.StringVar(&serverAddr, "server", "http://localhost:8080", "Server address")
	flag.StringVar(&format, "format", "", "Export format override")
	flag.StringVar(&after, "after", "", "Only messages sent after this date or message ID")
	flag.StringVar(&before, "before", "", "Only messages sent before this date or message ID")
	flag.StringVar(&partition, "partition", "", "Partition limit override")
	flag.StringVar(&filterExpr, "filter", "", "Message filter expression")
	flag.Parse()

	channelIDs := flag.Args()
	if len(channelIDs) == 0 {
		log.Fatal("At least one channel ID is required. Usage: client [flags] <channel1> <channel2> ...")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := server.NewClient(serverAddr)

	started, err := client.StartExport(ctx, server.ExportRequestBody{
		ChannelIDs:     channelIDs,
		Format:         format,
		After:          after,
		Before:         before,
		PartitionLimit: partition,
		MessageFilter:  filterExpr,
	})
	if err != nil {
		log.Fatalf("Failed to start export: %v", err)
	}

	fmt.Printf("Export task started: %s\n", started.TaskID)

	if _, err := client.WaitForCompletion(ctx, started.TaskID, 2*time.Second); err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	result, err := client.GetTaskResult(ctx, started.TaskID)
	if err != nil {
		log.Fatalf("Failed to fetch result: %v", err)
	}

	fmt.Println("Export completed.")
	for _, summary := range result.Exports {
		fmt.Printf("  %s / %s: %d message(s), %s\n",
			summary.GuildName, summary.ChannelName,
			summary.Messages, humanize.Bytes(uint64(summary.Bytes)))
		for _, key := range summary.ObjectKeys {
			fmt.Printf("    uploaded: %s\n", key)
		}
		if len(summary.ObjectKeys) == 0 && len(summary.Files) > 0 {
			fmt.Printf("    files: %s\n", strings.Join(summary.Files, ", "))
		}
	}
	if result.ReportKey != "" {
		fmt.Printf("Run report: %s\n", result.ReportKey)
	}
}
