package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/fintech-research-agents/agent/contract"
)

var _ contractx.ResultStore = (*PostgresStore)(nil)

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore keeps workflow runs and their execution records in Postgres.
type PostgresStore struct {
	db *bun.DB
}

type workflowRunModel struct {
	bun.BaseModel `bun:"table:workflow_runs,alias:wr"`

	ID                 string                    `bun:"id,pk"`
	CompanyName        string                    `bun:"company_name,notnull"`
	CreatedAt          time.Time                 `bun:"created_at,notnull"`
	TotalExecutionTime float64                   `bun:"total_execution_time,notnull"`
	Degraded           bool                      `bun:"degraded,notnull"`
	Result             *contractx.WorkflowResult `bun:"result,type:jsonb"`
}

type executionRecordModel struct {
	bun.BaseModel `bun:"table:execution_records,alias:er"`

	ID            int64     `bun:"id,pk,autoincrement"`
	RunID         string    `bun:"run_id,notnull"`
	Seq           int       `bun:"seq,notnull"`
	Role          string    `bun:"role,notnull"`
	Agent         string    `bun:"agent,notnull"`
	Task          string    `bun:"task"`
	ExecutionTime float64   `bun:"execution_time,notnull"`
	Errors        []string  `bun:"errors,array"`
	LoggedAt      time.Time `bun:"logged_at,notnull"`
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Init creates the tables when they do not exist yet.
func (s *PostgresStore) Init(ctx context.Context) error {
	models := []any{
		(*workflowRunModel)(nil),
		(*executionRecordModel)(nil),
	}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, res *contractx.WorkflowResult) error {
	if res == nil {
		return ErrNilResult
	}
	if strings.TrimSpace(res.RunID) == "" {
		return ErrInvalidRunID
	}

	run := newWorkflowRunModel(res)
	records := newExecutionRecordModels(res)

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().
			Model(run).
			On("CONFLICT (id) DO UPDATE").
			Set("total_execution_time = EXCLUDED.total_execution_time").
			Set("degraded = EXCLUDED.degraded").
			Set("result = EXCLUDED.result").
			Exec(ctx); err != nil {
			return fmt.Errorf("insert workflow run: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*executionRecordModel)(nil)).
			Where("run_id = ?", run.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear execution records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&records).Exec(ctx); err != nil {
			return fmt.Errorf("insert execution records: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Load(ctx context.Context, runID string) (*contractx.WorkflowResult, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, ErrInvalidRunID
	}

	run := new(workflowRunModel)
	err := s.db.NewSelect().Model(run).Where("id = ?", runID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select workflow run: %w", err)
	}
	if run.Result == nil {
		return nil, ErrResultNotFound
	}
	return run.Result, nil
}

func (s *PostgresStore) Delete(ctx context.Context, runID string) error {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ErrInvalidRunID
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*executionRecordModel)(nil)).Where("run_id = ?", runID).Exec(ctx); err != nil {
			return fmt.Errorf("delete execution records: %w", err)
		}
		if _, err := tx.NewDelete().Model((*workflowRunModel)(nil)).Where("id = ?", runID).Exec(ctx); err != nil {
			return fmt.Errorf("delete workflow run: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func newWorkflowRunModel(res *contractx.WorkflowResult) *workflowRunModel {
	return &workflowRunModel{
		ID:                 strings.TrimSpace(res.RunID),
		CompanyName:        res.CompanyName,
		CreatedAt:          res.Timestamp.UTC(),
		TotalExecutionTime: res.Summary.TotalExecutionTime,
		Degraded:           res.Summary.Degraded,
		Result:             res,
	}
}

func newExecutionRecordModels(res *contractx.WorkflowResult) []executionRecordModel {
	out := make([]executionRecordModel, 0, len(res.ExecutionLogs))
	for i, entry := range res.ExecutionLogs {
		out = append(out, executionRecordModel{
			RunID:         strings.TrimSpace(res.RunID),
			Seq:           i + 1,
			Role:          string(entry.Role),
			Agent:         entry.Agent,
			Task:          entry.Task,
			ExecutionTime: entry.ExecutionTime,
			Errors:        append([]string{}, entry.Errors...),
			LoggedAt:      entry.Timestamp.UTC(),
		})
	}
	return out
}
