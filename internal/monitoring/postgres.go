package monitoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StoredRecord is a full row of prediction_records as written by the
// scoring service or the seeding tool.
type StoredRecord struct {
	Answers          models.AnswerSet
	PredictedLabel   models.StressLabel
	PredictedFactors string
}

// PostgresSource reads the record store directly instead of going through
// the scoring service.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource connects to databaseURL and verifies the connection.
func NewPostgresSource(ctx context.Context, databaseURL string) (*PostgresSource, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSource{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresSource) Close() {
	s.pool.Close()
}

// Ping reports whether the database is reachable.
func (s *PostgresSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// MonitoringData returns every record in append (id) order.
func (s *PostgresSource) MonitoringData(ctx context.Context) ([]models.MonitoringRecord, error) {
	ctx, span := tracer.Start(ctx, "monitoring.postgres.query")
	defer span.End()

	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(predicted_label, ''), COALESCE(predicted_factors, ''),
		       anxiety_level, sleep_quality, study_load
		FROM prediction_records
		ORDER BY id ASC
	`)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query prediction records: %w", err)
	}
	defer rows.Close()

	records := []models.MonitoringRecord{}
	for rows.Next() {
		var r models.MonitoringRecord
		var label string
		if err := rows.Scan(&r.ID, &label, &r.PredictedFactors, &r.AnxietyLevel, &r.SleepQuality, &r.StudyLoad); err != nil {
			return nil, fmt.Errorf("failed to scan prediction record: %w", err)
		}
		r.PredictedLabel = models.StressLabel(label)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction records: %w", err)
	}

	return records, nil
}

// EnsureSchema creates prediction_records when it does not exist.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	columns := make([]string, 0, len(models.FieldNames())+3)
	columns = append(columns, "id SERIAL PRIMARY KEY")
	for _, name := range models.FieldNames() {
		columns = append(columns, name+" INTEGER")
	}
	columns = append(columns, "predicted_label VARCHAR", "predicted_factors VARCHAR")

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS prediction_records (\n\t%s\n)", strings.Join(columns, ",\n\t"))
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create prediction_records: %w", err)
	}
	return nil
}

// AppendRecords inserts records in a single transaction and returns how
// many were written.
func (s *PostgresSource) AppendRecords(ctx context.Context, records []StoredRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	names := models.FieldNames()
	columns := append(append([]string{}, names...), "predicted_label", "predicted_factors")
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insert := fmt.Sprintf("INSERT INTO prediction_records (%s) VALUES (%s)",
		strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, rec := range records {
		args := make([]interface{}, 0, len(columns))
		for _, name := range names {
			v, _ := rec.Answers.Get(name)
			args = append(args, v)
		}
		args = append(args, string(rec.PredictedLabel), rec.PredictedFactors)

		if _, err := tx.Exec(ctx, insert, args...); err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit records: %w", err)
	}
	return len(records), nil
}
