package rates

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"currency-api/domain"
)

//go:embed schema.sql
var schema string

// PostgresStore persists snapshots in PostgreSQL.
// Every rate is one row keyed by (observed_at, code).
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed Store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens and checks a connection pool for databaseURL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables used by the store if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context) (*domain.Snapshot, error) {
	var (
		observedAt          time.Time
		base                string
		disclaimer, license string
	)
	err := s.db.QueryRow(ctx, `
		SELECT observed_at, base, disclaimer, license
		FROM snapshots
		ORDER BY observed_at DESC
		LIMIT 1
	`).Scan(&observedAt, &base, &disclaimer, &license)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, unavailable("latest snapshot", errors.New("no rates ingested"))
		}
		return nil, unavailable("latest snapshot", err)
	}

	rows, err := s.db.Query(ctx, `SELECT code, rate FROM rates WHERE observed_at = $1`, observedAt)
	if err != nil {
		return nil, unavailable("latest rates", err)
	}
	defer rows.Close()

	raw := map[string]float64{}
	for rows.Next() {
		var code string
		var rate float64
		if err := rows.Scan(&code, &rate); err != nil {
			return nil, unavailable("scan rate", err)
		}
		raw[code] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("latest rates", err)
	}

	snapshot, err := domain.SnapshotFromWire(disclaimer, license, observedAt.Unix(), base, raw)
	if err != nil {
		return nil, unavailable("stored snapshot", err)
	}
	return snapshot, nil
}

func (s *PostgresStore) Ingest(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return errors.New("ingest: snapshot is required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return unavailable("begin ingest", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// On conflict the stored base is returned unchanged, which detects a base mismatch.
	var storedBase string
	err = tx.QueryRow(ctx, `
		INSERT INTO snapshots (observed_at, base, disclaimer, license)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (observed_at) DO UPDATE SET
			disclaimer = COALESCE(NULLIF(EXCLUDED.disclaimer, ''), snapshots.disclaimer),
			license    = COALESCE(NULLIF(EXCLUDED.license, ''), snapshots.license)
		RETURNING base
	`, snapshot.Timestamp(), snapshot.Base().String(), snapshot.Disclaimer(), snapshot.License()).Scan(&storedBase)
	if err != nil {
		return unavailable("upsert snapshot", err)
	}
	if storedBase != snapshot.Base().String() {
		return fmt.Errorf("%w: stored %v, got %v", ErrBaseMismatch, storedBase, snapshot.Base())
	}

	batch := &pgx.Batch{}
	for _, code := range snapshot.Codes() {
		rate, _ := snapshot.Rate(code)
		batch.Queue(`
			INSERT INTO rates (observed_at, code, rate)
			VALUES ($1, $2, $3)
			ON CONFLICT (observed_at, code) DO UPDATE SET
				rate = EXCLUDED.rate
		`, snapshot.Timestamp(), code.String(), float64(rate))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return unavailable("upsert rates", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return unavailable("commit ingest", err)
	}
	return nil
}

func (s *PostgresStore) Currencies(ctx context.Context) ([]domain.CurrencyName, error) {
	rows, err := s.db.Query(ctx, `SELECT code, name FROM currencies ORDER BY code ASC`)
	if err != nil {
		return nil, unavailable("list currencies", err)
	}
	defer rows.Close()

	currencies := []domain.CurrencyName{}
	for rows.Next() {
		var code, name string
		if err := rows.Scan(&code, &name); err != nil {
			return nil, unavailable("scan currency", err)
		}
		parsed, err := domain.ParseCode(code)
		if err != nil {
			// rows are only written through SaveCurrencies, so this is corrupt data
			return nil, unavailable("stored currency", err)
		}
		currencies = append(currencies, domain.CurrencyName{Code: parsed, Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list currencies", err)
	}
	return currencies, nil
}

func (s *PostgresStore) SaveCurrencies(ctx context.Context, currencies []domain.CurrencyName) error {
	if len(currencies) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range currencies {
		if c.Code.IsZero() {
			continue
		}
		batch.Queue(`
			INSERT INTO currencies (code, name)
			VALUES ($1, $2)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name
		`, c.Code.String(), c.Name)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return unavailable("save currencies", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
