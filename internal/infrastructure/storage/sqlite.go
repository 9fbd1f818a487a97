package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for accounts, splits and auto-clear runs.
// It implements the Repository interface.
type Storage struct {
	db    *sql.DB
	locks *accountLocks
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db, locks: newAccountLocks()}

	// Run all pending migrations
	if err := s.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// dsn enables foreign keys on every pooled connection and makes each
// transaction take the write lock up front (BEGIN IMMEDIATE).
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_foreign_keys=on&_txlock=immediate&_busy_timeout=5000"
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// ================================================================
// ACCOUNTS
// ================================================================

// CreateAccount stores a new account
func (s *Storage) CreateAccount(ctx context.Context, account *Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Commodity == "" {
		account.Commodity = "USD"
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, commodity, denom, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, account.ID, account.Name, account.Commodity, account.Denom, account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetAccount retrieves an account by ID
func (s *Storage) GetAccount(ctx context.Context, id string) (*Account, error) {
	return getAccount(ctx, s.db, id)
}

func getAccount(ctx context.Context, q querier, id string) (*Account, error) {
	account := &Account{}
	err := q.QueryRowContext(ctx, `
		SELECT id, name, commodity, denom, created_at FROM accounts WHERE id = ?
	`, id).Scan(&account.ID, &account.Name, &account.Commodity, &account.Denom, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns all accounts ordered by name
func (s *Storage) ListAccounts(ctx context.Context) ([]*Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, commodity, denom, created_at FROM accounts ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	accounts := make([]*Account, 0)
	for rows.Next() {
		account := &Account{}
		if err := rows.Scan(&account.ID, &account.Name, &account.Commodity, &account.Denom, &account.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// ================================================================
// SPLITS
// ================================================================

// AddSplit stores a new split
func (s *Storage) AddSplit(ctx context.Context, split *Split) error {
	if split.ID == "" {
		split.ID = uuid.NewString()
	}
	if split.PostedAt.IsZero() {
		split.PostedAt = time.Now().UTC()
	}

	var clearedAt any
	if split.ClearedAt != nil {
		clearedAt = *split.ClearedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO splits (id, account_id, memo, amount_num, amount_denom, cleared, posted_at, cleared_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, split.ID, split.AccountID, split.Memo, split.AmountNum, split.AmountDenom, split.Cleared, split.PostedAt, clearedAt)
	if err != nil {
		return fmt.Errorf("failed to add split: %w", err)
	}
	return nil
}

// ListSplits returns an account's splits matching the filters
func (s *Storage) ListSplits(ctx context.Context, accountID string, filters SplitFilters) ([]*Split, error) {
	return listSplits(ctx, s.db, accountID, filters)
}

func listSplits(ctx context.Context, q querier, accountID string, filters SplitFilters) ([]*Split, error) {
	query := `
		SELECT id, account_id, memo, amount_num, amount_denom, cleared, posted_at, cleared_at
		FROM splits WHERE account_id = ?`
	args := []any{accountID}

	switch filters.Status {
	case SplitStatusCleared:
		query += " AND cleared = 1"
	case SplitStatusUncleared:
		query += " AND cleared = 0"
	}

	query += " ORDER BY posted_at, id"
	if filters.Limit > 0 || filters.Offset > 0 {
		limit := filters.Limit
		if limit <= 0 {
			limit = -1 // SQLite: no limit
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, filters.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	splits := make([]*Split, 0)
	for rows.Next() {
		split := &Split{}
		var clearedAt sql.NullTime
		if err := rows.Scan(
			&split.ID,
			&split.AccountID,
			&split.Memo,
			&split.AmountNum,
			&split.AmountDenom,
			&split.Cleared,
			&split.PostedAt,
			&clearedAt,
		); err != nil {
			return nil, err
		}
		if clearedAt.Valid {
			t := clearedAt.Time
			split.ClearedAt = &t
		}
		splits = append(splits, split)
	}
	return splits, rows.Err()
}

// ================================================================
// AUTO-CLEAR RUNS
// ================================================================

// RecordRun stores a run and assigns its ID
func (s *Storage) RecordRun(ctx context.Context, run *AutoClearRun) error {
	return recordRun(ctx, s.db, run)
}

func recordRun(ctx context.Context, q querier, run *AutoClearRun) error {
	if err := run.encodeSplitIDs(); err != nil {
		return err
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	result, err := q.ExecContext(ctx, `
		INSERT INTO autoclear_runs
		(account_id, target_num, target_denom, delta_num, outcome, message, dry_run, applied,
		 candidate_count, explored_count, cleared_split_ids, cleared_balance_num, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.AccountID,
		run.TargetNum,
		run.TargetDenom,
		run.DeltaNum,
		run.Outcome,
		run.Message,
		run.DryRun,
		run.Applied,
		run.CandidateCount,
		run.ExploredCount,
		run.ClearedSplitIDsJSON,
		run.ClearedBalanceNum,
		run.StartedAt,
		run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to record auto-clear run: %w", err)
	}

	run.ID, err = result.LastInsertId()
	return err
}

const runColumns = `id, account_id, target_num, target_denom, delta_num, outcome, message, dry_run, applied,
	candidate_count, explored_count, cleared_split_ids, cleared_balance_num, started_at, duration_ms`

func scanRun(scan func(dest ...any) error) (*AutoClearRun, error) {
	run := &AutoClearRun{}
	err := scan(
		&run.ID,
		&run.AccountID,
		&run.TargetNum,
		&run.TargetDenom,
		&run.DeltaNum,
		&run.Outcome,
		&run.Message,
		&run.DryRun,
		&run.Applied,
		&run.CandidateCount,
		&run.ExploredCount,
		&run.ClearedSplitIDsJSON,
		&run.ClearedBalanceNum,
		&run.StartedAt,
		&run.DurationMs,
	)
	if err != nil {
		return nil, err
	}
	if err := run.decodeSplitIDs(); err != nil {
		return nil, fmt.Errorf("run %d: bad cleared_split_ids: %w", run.ID, err)
	}
	return run, nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(ctx context.Context, id int64) (*AutoClearRun, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM autoclear_runs WHERE id = ?`, id)
	run, err := scanRun(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(ctx context.Context, filters RunFilters) ([]*AutoClearRun, error) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM autoclear_runs WHERE 1=1`
	args := []any{}
	if filters.AccountID != "" {
		query += " AND account_id = ?"
		args = append(args, filters.AccountID)
	}
	if filters.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, filters.Outcome)
	}
	query += " ORDER BY id DESC LIMIT ? OFFSET ?"
	args = append(args, filters.Limit, filters.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	runs := make([]*AutoClearRun, 0)
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ================================================================
// EDIT SCOPE
// ================================================================

// EditAccount runs fn with the account locked in-process and inside a write transaction.
func (s *Storage) EditAccount(ctx context.Context, accountID string, fn func(AccountEditor) error) error {
	unlock := s.locks.lock(accountID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin edit of account %s: %w", accountID, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	account, err := getAccount(ctx, tx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}

	if err := fn(&sqlEditor{tx: tx, account: account}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit edit of account %s: %w", accountID, err)
	}
	committed = true
	return nil
}

// sqlEditor implements AccountEditor on an open transaction
type sqlEditor struct {
	tx      *sql.Tx
	account *Account
}

func (e *sqlEditor) Account() *Account {
	return e.account
}

func (e *sqlEditor) Splits(ctx context.Context) ([]*Split, error) {
	return listSplits(ctx, e.tx, e.account.ID, SplitFilters{})
}

func (e *sqlEditor) MarkCleared(ctx context.Context, splitIDs []string, at time.Time) error {
	if len(splitIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(splitIDs)), ",")
	args := make([]any, 0, len(splitIDs)+2)
	args = append(args, at.UTC(), e.account.ID)
	for _, id := range splitIDs {
		args = append(args, id)
	}

	result, err := e.tx.ExecContext(ctx, `
		UPDATE splits SET cleared = 1, cleared_at = ?
		WHERE account_id = ? AND cleared = 0 AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark splits cleared: %w", err)
	}

	updated, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if updated != int64(len(splitIDs)) {
		return fmt.Errorf("%w: cleared %d of %d splits", ErrClearConflict, updated, len(splitIDs))
	}
	return nil
}

func (e *sqlEditor) RecordRun(ctx context.Context, run *AutoClearRun) error {
	return recordRun(ctx, e.tx, run)
}
