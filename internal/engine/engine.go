// Package engine is the accounting core: it owns task lifecycle, enforces
// at-most-once completion per (task, user), and is the only component that
// mutates point balances. Handlers are thin translators around it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/hashlabs/taskpoints/internal/model"
	"github.com/hashlabs/taskpoints/internal/store"
	"github.com/hashlabs/taskpoints/internal/task"
)

// Broadcaster pushes authoritative balance changes to connected views so
// optimistic client state converges without a second round trip.
type Broadcaster interface {
	BalanceUpdated(principalID int64, newBalance int)
}

type Engine struct {
	tasks      *store.TaskStore
	principals *store.PrincipalStore
	contacts   *store.ContactStore
	reward     int
	broadcast  Broadcaster
	logger     *slog.Logger
}

func New(ts *store.TaskStore, ps *store.PrincipalStore, cs *store.ContactStore, reward int, b Broadcaster, logger *slog.Logger) *Engine {
	return &Engine{
		tasks:      ts,
		principals: ps,
		contacts:   cs,
		reward:     reward,
		broadcast:  b,
		logger:     logger,
	}
}

// --- Task Registry ---

// Submit validates and persists a new task. The active-link uniqueness check
// is the partial unique index; a constraint failure maps to ErrDuplicateLink
// so concurrent identical submissions lose cleanly.
func (e *Engine) Submit(submitterID int64, platform, action, link string) (*model.Task, error) {
	if !task.ValidAction(platform, action) {
		return nil, ErrInvalidAction
	}
	if !task.ValidLink(platform, link) {
		return nil, ErrInvalidLink
	}
	normalized, err := task.NormalizeLink(link)
	if err != nil {
		return nil, ErrInvalidLink
	}

	t, err := e.tasks.Create(platform, action, link, normalized, submitterID)
	if err != nil {
		if store.IsUniqueViolation(err, "tasks") {
			return nil, ErrDuplicateLink
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	e.logger.Info("task submitted", "task_id", t.ID, "platform", platform, "action", action, "submitter", submitterID)
	return t, nil
}

// ListFor returns the feed for a non-admin viewer: active tasks they have not
// completed, with their own submissions flagged.
func (e *Engine) ListFor(viewerID int64) ([]model.TaskView, error) {
	views, err := e.tasks.ListForUser(viewerID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return views, nil
}

// ListAll returns every task including inactive ones, for the admin view.
func (e *Engine) ListAll() ([]model.Task, error) {
	tasks, err := e.tasks.List()
	if err != nil {
		return nil, fmt.Errorf("list all tasks: %w", err)
	}
	return tasks, nil
}

// Deactivate retires a task. Idempotent; completion history stays queryable.
func (e *Engine) Deactivate(taskID int64) error {
	found, err := e.tasks.Deactivate(taskID)
	if err != nil {
		return fmt.Errorf("deactivate task: %w", err)
	}
	if !found {
		return ErrTaskNotFound
	}
	e.logger.Info("task deactivated", "task_id", taskID)
	return nil
}

// --- Completion Engine ---

// CompletionResult is what a successful completion reports back.
type CompletionResult struct {
	NewBalance int `json:"new_balance"`
	Reward     int `json:"reward"`
}

// Complete records a completion and credits the reward. The completion insert
// and the balance credit commit in one transaction; the UNIQUE(task_id,
// user_id) index decides races, so there is no separate check-then-act
// window. Transient lock contention is retried with constant backoff.
func (e *Engine) Complete(ctx context.Context, taskID, userID int64) (CompletionResult, error) {
	t, err := e.tasks.GetByID(taskID)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("load task: %w", err)
	}
	if t == nil {
		return CompletionResult{}, ErrTaskNotFound
	}
	if !t.Active {
		return CompletionResult{}, ErrTaskInactive
	}
	if t.SubmittedBy == userID {
		return CompletionResult{}, ErrSelfCompletion
	}

	var balance int
	backoff := retry.WithMaxRetries(3, retry.NewConstant(50*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		b, err := e.tasks.RecordCompletion(taskID, userID, e.reward)
		if err != nil {
			if store.IsBusy(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		balance = b
		return nil
	})
	if err != nil {
		if store.IsUniqueViolation(err, "completions") {
			return CompletionResult{}, ErrAlreadyCompleted
		}
		return CompletionResult{}, fmt.Errorf("record completion: %w", err)
	}

	e.logger.Info("task completed", "task_id", taskID, "user_id", userID, "reward", e.reward, "balance", balance)
	if e.broadcast != nil {
		e.broadcast.BalanceUpdated(userID, balance)
	}
	return CompletionResult{NewBalance: balance, Reward: e.reward}, nil
}

// --- Points Ledger View ---

func (e *Engine) Stats() (model.Stats, error) {
	users, err := e.principals.CountUsers()
	if err != nil {
		return model.Stats{}, err
	}
	tasks, err := e.tasks.CountTasks()
	if err != nil {
		return model.Stats{}, err
	}
	contacts, err := e.contacts.Count()
	if err != nil {
		return model.Stats{}, err
	}
	return model.Stats{TotalUsers: users, TotalTasks: tasks, TotalContacts: contacts}, nil
}

// ListUsers returns a page of users with points and signup date.
func (e *Engine) ListUsers(page, perPage int) ([]model.Principal, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return e.principals.ListUsers(perPage, (page-1)*perPage)
}

// UserCompletions returns a user's completion history for audit.
func (e *Engine) UserCompletions(userID int64) ([]model.CompletionDetail, error) {
	p, err := e.principals.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if p == nil {
		return nil, ErrPrincipalNotFound
	}
	return e.tasks.ListCompletionsByUser(userID)
}

// SetBalance is the administrative overwrite: an absolute value, not a delta.
func (e *Engine) SetBalance(userID int64, balance int) (*model.Principal, error) {
	if balance < 0 {
		return nil, ErrInvalidBalance
	}
	p, err := e.principals.SetBalance(userID, balance)
	if err != nil {
		return nil, fmt.Errorf("set balance: %w", err)
	}
	if p == nil {
		return nil, ErrPrincipalNotFound
	}

	e.logger.Info("balance overwritten", "user_id", userID, "balance", balance)
	if e.broadcast != nil {
		e.broadcast.BalanceUpdated(userID, p.Points)
	}
	return p, nil
}

// EarnedPoints recomputes lifetime earnings from the completion ledger. The
// materialized balance should equal this minus administrative overwrites;
// audits compare the two.
func (e *Engine) EarnedPoints(userID int64) (int, error) {
	return e.tasks.EarnedPoints(userID)
}
