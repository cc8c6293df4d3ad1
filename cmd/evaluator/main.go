package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stratlab/internal/config"
	"stratlab/internal/engine"
	"stratlab/internal/errors"
	"stratlab/internal/feature"
	"stratlab/internal/logger"
	"stratlab/internal/market/kline"
	"stratlab/internal/monitoring"
)

func main() {
	var (
		configPath   = flag.String("config", "", "Configuration file path (defaults apply when empty)")
		strategyPath = flag.String("strategy", "", "Strategy YAML file path")
		dataDir      = flag.String("data", "data", "Directory of per-asset CSV bar files (<ASSET>.csv)")
		outPath      = flag.String("out", "", "Report output path (stdout when empty)")
		listFeatures = flag.Bool("features", false, "Print the feature catalogue and exit")
	)
	flag.Parse()

	// Optional .env for local overrides, same as any other deployment knob
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Logging)

	registry, err := feature.NewBuiltinRegistry()
	if err != nil {
		log.Fatalf("Failed to build feature registry: %v", err)
	}

	eng, err := engine.New(cfg, registry, nil, monitoring.NewDefaultMetrics())
	if err != nil {
		log.Fatalf("Failed to create evaluation engine: %v", err)
	}

	if *listFeatures {
		for _, d := range eng.Catalogue() {
			fmt.Printf("%-24s %s\n", d.Name, d.Description)
		}
		return
	}

	if *strategyPath == "" {
		log.Fatal("Missing required -strategy flag")
	}
	strategy, err := loadStrategy(*strategyPath)
	if err != nil {
		log.Fatalf("Failed to load strategy: %v", err)
	}

	histories, err := loadHistories(*dataDir, strategy)
	if err != nil {
		log.Fatalf("Failed to load price history: %v", err)
	}

	report, err := eng.Evaluate(context.Background(), strategy, histories)
	if err != nil {
		if evalErr := errors.GetEvalError(err); evalErr != nil {
			logger.Error("evaluation failed",
				"code", string(evalErr.Code),
				"stage", string(evalErr.Stage),
				"asset", evalErr.Asset,
				"error", evalErr.Message,
			)
		}
		log.Fatalf("Evaluation failed: %v", err)
	}

	if err := writeReport(report, *outPath); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func loadStrategy(path string) (*engine.StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var strategy engine.StrategyConfig
	if err := yaml.Unmarshal(data, &strategy); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	return &strategy, nil
}

func loadHistories(dir string, strategy *engine.StrategyConfig) (map[string]*kline.History, error) {
	interval := strategy.Timeframe
	if interval == "" {
		interval = kline.Interval1h
	}
	histories := make(map[string]*kline.History, len(strategy.Assets))
	for _, asset := range strategy.Assets {
		path := filepath.Join(dir, asset+".csv")
		bars, err := loadBars(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		histories[asset] = kline.NewHistory(asset, interval, bars)
	}
	return histories, nil
}

// loadBars reads one asset's bars from CSV. Expected columns:
// timestamp,open,high,low,close,volume[,funding_rate,open_interest]
// with timestamps either RFC3339 or Unix milliseconds. A header row is
// skipped when the first field does not parse as a timestamp.
func loadBars(path string) ([]kline.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []kline.Bar
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(record) < 6 {
			return nil, fmt.Errorf("line %d: expected at least 6 columns, got %d", line, len(record))
		}

		ts, err := parseTimestamp(record[0])
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		fields := make([]float64, len(record)-1)
		for i, raw := range record[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+2, err)
			}
			fields[i] = v
		}

		bar := kline.Bar{
			Timestamp: ts,
			Open:      fields[0],
			High:      fields[1],
			Low:       fields[2],
			Close:     fields[3],
			Volume:    fields[4],
		}
		if len(fields) > 5 {
			bar.FundingRate = fields[5]
		}
		if len(fields) > 6 {
			bar.OpenInterest = fields[6]
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func writeReport(report *engine.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
