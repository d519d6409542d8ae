package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/natserract/aukro/pkg/aukro"
)

const (
	loadSessionSQL  = `SELECT payload FROM aukro_sessions WHERE name = $1`
	storeSessionSQL = `INSERT INTO aukro_sessions (name, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	clearSessionSQL = `DELETE FROM aukro_sessions WHERE name = $1`
)

// dbtx is the subset of *pgxpool.Pool the store needs
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres keeps sessions in the aukro_sessions table, one row per name.
// The table is created by postgres.SessionSchema.
type Postgres struct {
	db     dbtx
	name   string
	logger *zap.Logger
}

// NewPostgres creates a store for the session called name
func NewPostgres(db dbtx, name string, logger *zap.Logger) *Postgres {
	return &Postgres{
		db:     db,
		name:   name,
		logger: logger,
	}
}

func (p *Postgres) Load(ctx context.Context) (aukro.SessionRecord, bool, error) {
	var payload []byte
	err := p.db.QueryRow(ctx, loadSessionSQL, p.name).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return aukro.SessionRecord{}, false, nil
	}
	if err != nil {
		p.logger.Error("Failed to load session", zap.String("name", p.name), zap.Error(err))
		return aukro.SessionRecord{}, false, fmt.Errorf("failed to load session %s: %w", p.name, err)
	}

	var record aukro.SessionRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return aukro.SessionRecord{}, false, fmt.Errorf("failed to unmarshal session %s: %w", p.name, err)
	}
	return record, true, nil
}

func (p *Postgres) Store(ctx context.Context, record aukro.SessionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if _, err := p.db.Exec(ctx, storeSessionSQL, p.name, payload); err != nil {
		p.logger.Error("Failed to store session", zap.String("name", p.name), zap.Error(err))
		return fmt.Errorf("failed to store session %s: %w", p.name, err)
	}
	return nil
}

func (p *Postgres) Clear(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, clearSessionSQL, p.name); err != nil {
		p.logger.Error("Failed to clear session", zap.String("name", p.name), zap.Error(err))
		return fmt.Errorf("failed to clear session %s: %w", p.name, err)
	}
	return nil
}
