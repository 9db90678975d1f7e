package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fairyhunter13/cart-service-simulator/internal/model"
	"github.com/fairyhunter13/cart-service-simulator/internal/obs"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS cart_snapshots (
    slot       TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// OpenDB connects to Postgres via the pgx stdlib driver and bootstraps the
// snapshot table.
func OpenDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return db, nil
}

// PostgresAdapter keeps the snapshot slot as one row in cart_snapshots.
type PostgresAdapter struct {
	db   *sql.DB
	slot string
}

// NewPostgresAdapter returns an adapter bound to the given slot.
func NewPostgresAdapter(db *sql.DB, slot string) *PostgresAdapter {
	return &PostgresAdapter{db: db, slot: slot}
}

// Save upserts the slot row with the given items.
func (a *PostgresAdapter) Save(items []model.LineItem) error {
	b, err := encodeSnapshot(items)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO cart_snapshots (slot, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (slot) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		a.slot, b)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the slot row. A missing row or malformed payload yields an
// empty cart.
func (a *PostgresAdapter) Load() ([]model.LineItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var b []byte
	err := a.db.QueryRowContext(ctx,
		`SELECT payload FROM cart_snapshots WHERE slot = $1`, a.slot).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	items, ok := decodeSnapshot(b)
	if !ok {
		obs.Logger.Warn("snapshot_malformed", "slot", a.slot)
		return nil, nil
	}
	return items, nil
}
