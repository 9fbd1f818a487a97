package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu        sync.Mutex
	locks     *accountLocks
	accounts  map[string]*Account
	splits    map[string][]*Split // Keyed by account_id, in insertion order
	runs      []*AutoClearRun
	nextRunID int64

	// Hooks for test assertions
	EditAccountCalls int
	MarkClearedCalls int
	LastRecordedRun  *AutoClearRun

	// Error injection for testing error paths
	CreateAccountErr error
	GetAccountErr    error
	ListSplitsErr    error
	AddSplitErr      error
	MarkClearedErr   error
	RecordRunErr     error
	ListRunsErr      error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		locks:     newAccountLocks(),
		accounts:  make(map[string]*Account),
		splits:    make(map[string][]*Split),
		runs:      make([]*AutoClearRun, 0),
		nextRunID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close is a no-op
func (m *MockRepository) Close() error {
	return nil
}

// CreateAccount stores a copy of the account
func (m *MockRepository) CreateAccount(_ context.Context, account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateAccountErr != nil {
		return m.CreateAccountErr
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Commodity == "" {
		account.Commodity = "USD"
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	if _, exists := m.accounts[account.ID]; exists {
		return fmt.Errorf("failed to create account: duplicate id %s", account.ID)
	}

	stored := *account
	m.accounts[account.ID] = &stored
	return nil
}

// GetAccount returns a copy of the account or nil
func (m *MockRepository) GetAccount(_ context.Context, id string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetAccountErr != nil {
		return nil, m.GetAccountErr
	}
	account, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	out := *account
	return &out, nil
}

// ListAccounts returns accounts ordered by name
func (m *MockRepository) ListAccounts(_ context.Context) ([]*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	accounts := make([]*Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out := *a
		accounts = append(accounts, &out)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

// AddSplit stores a copy of the split
func (m *MockRepository) AddSplit(_ context.Context, split *Split) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AddSplitErr != nil {
		return m.AddSplitErr
	}
	if _, ok := m.accounts[split.AccountID]; !ok {
		return fmt.Errorf("failed to add split: unknown account %s", split.AccountID)
	}
	if split.ID == "" {
		split.ID = uuid.NewString()
	}
	if split.PostedAt.IsZero() {
		split.PostedAt = time.Now().UTC()
	}

	stored := *split
	m.splits[split.AccountID] = append(m.splits[split.AccountID], &stored)
	return nil
}

// ListSplits returns copies of an account's splits matching the filters
func (m *MockRepository) ListSplits(_ context.Context, accountID string, filters SplitFilters) ([]*Split, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListSplitsErr != nil {
		return nil, m.ListSplitsErr
	}
	return m.listSplitsLocked(accountID, filters), nil
}

func (m *MockRepository) listSplitsLocked(accountID string, filters SplitFilters) []*Split {
	out := make([]*Split, 0)
	for _, s := range m.splits[accountID] {
		switch filters.Status {
		case SplitStatusCleared:
			if !s.Cleared {
				continue
			}
		case SplitStatusUncleared:
			if s.Cleared {
				continue
			}
		}
		cp := *s
		out = append(out, &cp)
	}

	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return []*Split{}
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out
}

// RecordRun stores a run and assigns its ID
func (m *MockRepository) RecordRun(_ context.Context, run *AutoClearRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordRunLocked(run)
}

func (m *MockRepository) recordRunLocked(run *AutoClearRun) error {
	if m.RecordRunErr != nil {
		return m.RecordRunErr
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.ClearedSplitIDs == nil {
		run.ClearedSplitIDs = []string{}
	}
	if run.ID == 0 {
		run.ID = m.nextRunID
		m.nextRunID++
	}

	stored := *run
	stored.ClearedSplitIDs = append([]string{}, run.ClearedSplitIDs...)
	m.runs = append(m.runs, &stored)
	m.LastRecordedRun = &stored
	return nil
}

// GetRun returns a copy of the run or nil
func (m *MockRepository) GetRun(_ context.Context, id int64) (*AutoClearRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.runs {
		if r.ID == id {
			out := *r
			return &out, nil
		}
	}
	return nil, nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(_ context.Context, filters RunFilters) ([]*AutoClearRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRunsErr != nil {
		return nil, m.ListRunsErr
	}
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	out := make([]*AutoClearRun, 0)
	for i := len(m.runs) - 1; i >= 0; i-- {
		r := m.runs[i]
		if filters.AccountID != "" && r.AccountID != filters.AccountID {
			continue
		}
		if filters.Outcome != "" && r.Outcome != filters.Outcome {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}

	if filters.Offset >= len(out) {
		return []*AutoClearRun{}, nil
	}
	out = out[filters.Offset:]
	if len(out) > filters.Limit {
		out = out[:filters.Limit]
	}
	return out, nil
}

// EditAccount runs fn against a staged copy of the account's splits and runs.
// Cleared flags and runs are committed only when fn returns nil.
func (m *MockRepository) EditAccount(_ context.Context, accountID string, fn func(AccountEditor) error) error {
	unlock := m.locks.lock(accountID)
	defer unlock()

	m.mu.Lock()
	m.EditAccountCalls++
	if m.GetAccountErr != nil {
		m.mu.Unlock()
		return m.GetAccountErr
	}
	account, ok := m.accounts[accountID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	acct := *account
	staged := make([]*Split, 0, len(m.splits[accountID]))
	for _, s := range m.splits[accountID] {
		cp := *s
		staged = append(staged, &cp)
	}
	m.mu.Unlock()

	editor := &mockEditor{repo: m, account: &acct, splits: staged, cleared: make(map[string]time.Time)}
	if err := fn(editor); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Merge only the flag changes; splits added meanwhile stay.
	for _, s := range m.splits[accountID] {
		if at, ok := editor.cleared[s.ID]; ok {
			clearedAt := at
			s.Cleared = true
			s.ClearedAt = &clearedAt
		}
	}
	for _, run := range editor.runs {
		if err := m.recordRunLocked(run); err != nil {
			return err
		}
	}
	return nil
}

// mockEditor stages changes until EditAccount commits them
type mockEditor struct {
	repo    *MockRepository
	account *Account
	splits  []*Split
	cleared map[string]time.Time
	runs    []*AutoClearRun
}

func (e *mockEditor) Account() *Account {
	return e.account
}

func (e *mockEditor) Splits(_ context.Context) ([]*Split, error) {
	e.repo.mu.Lock()
	err := e.repo.ListSplitsErr
	e.repo.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*Split, len(e.splits))
	for i, s := range e.splits {
		cp := *s
		out[i] = &cp
	}
	return out, nil
}

func (e *mockEditor) MarkCleared(_ context.Context, splitIDs []string, at time.Time) error {
	e.repo.mu.Lock()
	e.repo.MarkClearedCalls++
	err := e.repo.MarkClearedErr
	e.repo.mu.Unlock()
	if err != nil {
		return err
	}

	byID := make(map[string]*Split, len(e.splits))
	for _, s := range e.splits {
		byID[s.ID] = s
	}

	seen := make(map[string]bool, len(splitIDs))
	for _, id := range splitIDs {
		s, ok := byID[id]
		if !ok || s.Cleared || seen[id] {
			return fmt.Errorf("%w: split %s", ErrClearConflict, id)
		}
		seen[id] = true
	}

	clearedAt := at.UTC()
	for _, id := range splitIDs {
		byID[id].Cleared = true
		byID[id].ClearedAt = &clearedAt
		e.cleared[id] = clearedAt
	}
	return nil
}

func (e *mockEditor) RecordRun(_ context.Context, run *AutoClearRun) error {
	e.repo.mu.Lock()
	defer e.repo.mu.Unlock()
	if e.repo.RecordRunErr != nil {
		return e.repo.RecordRunErr
	}
	// IDs are handed out when the row is written, as SQLite does.
	run.ID = e.repo.nextRunID
	e.repo.nextRunID++
	e.runs = append(e.runs, run)
	return nil
}
