package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/internal/monitoring"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
)

const (
	columnStressLevel      = "stress_level"
	columnPredictedLabel   = "predicted_label"
	columnPredictedFactors = "predicted_factors"
)

func main() {
	_ = godotenv.Load()

	file := flag.String("file", "", "CSV file with catalog fields and stress_level or predicted_label (required)")
	databaseURL := flag.String("database-url", os.Getenv("MINDEASE_MONITORING_DATABASE_URL"), "record store URL")
	traces := flag.Bool("traces", false, "print spans to stdout")
	flag.Parse()

	if err := logger.Init("info", "text"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if *traces {
		if err := initTracer(); err != nil {
			logger.Fatalf("Failed to initialize tracer: %v", err)
		}
	}

	if *file == "" {
		logger.Fatalf("Validation error: -file is required")
	}
	if *databaseURL == "" {
		logger.Fatalf("Validation error: -database-url or MINDEASE_MONITORING_DATABASE_URL is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	records, err := parseRecords(f)
	if err != nil {
		logger.Fatalf("Invalid input: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	ctx, span := otel.Tracer("seed-records").Start(ctx, "seed_records")
	defer span.End()

	store, err := monitoring.NewPostgresSource(ctx, *databaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to record store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatalf("Failed to prepare schema: %v", err)
	}

	written, err := store.AppendRecords(ctx, records)
	if err != nil {
		logger.Fatalf("Failed to insert records: %v", err)
	}

	logger.WithFields(logger.Fields{"file": *file, "records": written}).Info("Seeded prediction records")
}

// parseRecords reads a CSV whose header names catalog fields plus either
// stress_level (0..2) or predicted_label. Missing catalog columns default
// to 0; values outside a field's range are rejected rather than clamped.
func parseRecords(r io.Reader) ([]monitoring.StoredRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty input")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	_, hasLevel := index[columnStressLevel]
	_, hasLabel := index[columnPredictedLabel]
	if !hasLevel && !hasLabel {
		return nil, fmt.Errorf("header needs %s or %s", columnStressLevel, columnPredictedLabel)
	}

	var records []monitoring.StoredRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("no records")
	}
	return records, nil
}

func parseRow(row []string, index map[string]int) (monitoring.StoredRecord, error) {
	rec := monitoring.StoredRecord{Answers: models.NewAnswerSet()}

	for _, name := range models.FieldNames() {
		i, ok := index[name]
		if !ok {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(row[i]))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", name, err)
		}
		spec, _ := models.LookupField(name)
		if v < 0 || v > spec.Max {
			return rec, fmt.Errorf("%s: %d outside 0..%d", name, v, spec.Max)
		}
		if _, err := rec.Answers.Set(name, v); err != nil {
			return rec, err
		}
	}

	if i, ok := index[columnPredictedLabel]; ok && strings.TrimSpace(row[i]) != "" {
		rec.PredictedLabel = models.StressLabel(strings.TrimSpace(row[i]))
	} else {
		i, ok := index[columnStressLevel]
		if !ok {
			return rec, fmt.Errorf("%s is empty", columnPredictedLabel)
		}
		level, err := strconv.Atoi(strings.TrimSpace(row[i]))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", columnStressLevel, err)
		}
		label, ok := models.LabelForPrediction(level)
		if !ok {
			return rec, fmt.Errorf("%s: %d outside 0..2", columnStressLevel, level)
		}
		rec.PredictedLabel = label
	}
	if !rec.PredictedLabel.Valid() {
		return rec, fmt.Errorf("unknown label %q", rec.PredictedLabel)
	}

	if i, ok := index[columnPredictedFactors]; ok {
		rec.PredictedFactors = strings.TrimSpace(row[i])
	}
	return rec, nil
}

func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	otel.SetTracerProvider(trace.NewTracerProvider(trace.WithBatcher(exporter)))
	return nil
}
