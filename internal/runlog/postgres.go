package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/nstepro/the-compound-sub000/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the run log uses. pgxmock
// satisfies it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresLog implements Log using pgxpool, for deployments where
// several operators share one run history.
type PostgresLog struct {
	pool pgxPool
}

// NewPostgres creates a PostgresLog with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresLog, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: parse postgres config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "runlog: ping postgres")
	}
	return &PostgresLog{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	document_id  TEXT NOT NULL,
	full_refresh BOOLEAN NOT NULL DEFAULT false,
	status       TEXT NOT NULL DEFAULT 'queued',
	stats        JSONB,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS run_events (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	phase      TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_document ON runs(document_id);
CREATE INDEX IF NOT EXISTS idx_run_events_run_id ON run_events(run_id);
`

func (p *PostgresLog) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "runlog: migrate postgres")
}

func (p *PostgresLog) Close() error {
	p.pool.Close()
	return nil
}

func (p *PostgresLog) CreateRun(ctx context.Context, documentID string, fullRefresh bool) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := p.pool.Exec(ctx,
		`INSERT INTO runs (id, document_id, full_refresh, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, documentID, fullRefresh, string(StatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: insert run")
	}

	return &Run{
		ID:          id,
		DocumentID:  documentID,
		FullRefresh: fullRefresh,
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *PostgresLog) UpdateRunStatus(ctx context.Context, runID string, status RunStatus) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("runlog: run not found: %s", runID)
	}
	return nil
}

func (p *PostgresLog) CompleteRun(ctx context.Context, runID string, stats model.EnrichmentStats) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return eris.Wrap(err, "runlog: marshal stats")
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, updated_at = $3 WHERE id = $4`,
		string(StatusComplete), statsJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("runlog: run not found: %s", runID)
	}
	return nil
}

func (p *PostgresLog) FailRun(ctx context.Context, runID string, message string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(StatusFailed), message, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("runlog: run not found: %s", runID)
	}
	return nil
}

func (p *PostgresLog) AddEvent(ctx context.Context, runID, phase, message string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO run_events (id, run_id, phase, message, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), runID, phase, message, time.Now().UTC(),
	)
	return eris.Wrapf(err, "runlog: insert event for run %s", runID)
}

func (p *PostgresLog) GetRun(ctx context.Context, runID string) (*Run, error) {
	var r Run
	var statsJSON []byte
	var errMsg *string

	err := p.pool.QueryRow(ctx,
		`SELECT id, document_id, full_refresh, status, stats, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.DocumentID, &r.FullRefresh, &r.Status, &statsJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("runlog: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: get run %s", runID)
	}

	if len(statsJSON) > 0 {
		r.Stats = &model.EnrichmentStats{}
		if err := json.Unmarshal(statsJSON, r.Stats); err != nil {
			return nil, eris.Wrap(err, "runlog: unmarshal stats")
		}
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}

func (p *PostgresLog) ListRuns(ctx context.Context, filter Filter) ([]Run, error) {
	query := `SELECT id, document_id, full_refresh, status, stats, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + itoa(len(args))
	}
	if filter.DocumentID != "" {
		args = append(args, filter.DocumentID)
		query += ` AND document_id = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + itoa(len(args))
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var statsJSON []byte
		var errMsg *string
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.FullRefresh, &r.Status, &statsJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		if len(statsJSON) > 0 {
			r.Stats = &model.EnrichmentStats{}
			if err := json.Unmarshal(statsJSON, r.Stats); err != nil {
				return nil, eris.Wrap(err, "runlog: unmarshal stats")
			}
		}
		if errMsg != nil {
			r.Error = *errMsg
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "runlog: list runs iterate")
}

func (p *PostgresLog) ListEvents(ctx context.Context, runID string) ([]PhaseEvent, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, run_id, phase, message, created_at FROM run_events WHERE run_id = $1 ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "runlog: list events for run %s", runID)
	}
	defer rows.Close()

	var events []PhaseEvent
	for rows.Next() {
		var e PhaseEvent
		if err := rows.Scan(&e.ID, &e.RunID, &e.Phase, &e.Message, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "runlog: scan event")
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "runlog: list events iterate")
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
