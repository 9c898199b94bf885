// Command spend-import stores a spend snapshot in the SQLite database and
// announces it to running dashboard servers.
//
// The snapshot is read from -file, from -url, or, when neither is given,
// from the configured DATA_BACKEND.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendboard/internal/amqp"
	"spendboard/internal/backend"
	"spendboard/internal/cli"
	"spendboard/internal/config"
	"spendboard/internal/core"
	"spendboard/internal/ingest"
	"spendboard/internal/log"
	"spendboard/internal/sources/remote"
)

func main() {
	file := flag.String("file", "", "path of a JSON or CSV spend export")
	url := flag.String("url", "", "HTTP endpoint serving a spend export")
	sourceName := flag.String("source", "", "name recorded with the import (default: derived from the input)")
	flag.Parse()

	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(log.ComponentImport)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	records, name, err := readSnapshot(ctx, cfg, logger, *file, *url)
	if err != nil {
		logger.Error("Failed to read snapshot", log.FieldError, err, log.FieldOperation, log.OpImport)
		os.Exit(1)
	}
	if *sourceName != "" {
		name = *sourceName
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	importID, err := repo.ReplaceAll(ctx, name, records)
	if err != nil {
		logger.Error("Failed to store snapshot", log.FieldError, err, log.FieldOperation, log.OpImport)
		os.Exit(1)
	}
	logger.Info("Snapshot stored",
		log.FieldImportID, importID,
		log.FieldSource, name,
		log.FieldRecords, len(records),
		log.FieldDuration, time.Since(start).Milliseconds(),
		"db", cfg.SQLiteDBPath)

	if !cfg.AMQPEnabled() {
		logger.Info("AMQP disabled - servers pick up the snapshot on their next reload")
		return
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	msg := amqp.NewDatasetRefreshedMessage(importID, len(records), name)
	if err := client.PublishRefresh(ctx, msg); err != nil {
		logger.Error("Failed to publish refresh notification", log.FieldError, err,
			log.FieldOperation, log.OpPublish,
			log.FieldImportID, importID)
		os.Exit(1)
	}
}

// readSnapshot loads records from the first configured input.
func readSnapshot(ctx context.Context, cfg *config.Config, logger *log.Logger, file, url string) ([]core.SpendRecord, string, error) {
	switch {
	case file != "" && url != "":
		return nil, "", fmt.Errorf("-file and -url are mutually exclusive")
	case file != "":
		body, err := os.ReadFile(file)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", file, err)
		}
		return ingest.Parse(body), "file:" + file, nil
	case url != "":
		src, err := remote.New(url, cfg.RemoteTimeout)
		if err != nil {
			return nil, "", err
		}
		records, err := src.Load(ctx)
		return records, src.Name(), err
	}

	if cfg.DataBackend == config.BackendSQLite {
		return nil, "", fmt.Errorf("DATA_BACKEND is sqlite; pass -file or -url")
	}
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, "", err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return nil, "", err
	}
	defer result.Close()

	records, err := result.Source.Load(ctx)
	return records, result.Source.Name(), err
}
