package store

import (
	"database/sql"
	"fmt"

	"github.com/hashlabs/taskpoints/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var active int
	err := scanner.Scan(
		&t.ID, &t.Platform, &t.Action, &t.Link, &t.NormalizedLink,
		&t.SubmittedBy, &active, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Active = active != 0
	return &t, nil
}

const taskCols = `id, platform, action, link, normalized_link, submitted_by, active, created_at`

// Create inserts a new active task. A collision on the active-link unique
// index surfaces as the raw constraint error; callers translate it.
func (s *TaskStore) Create(platform, action, link, normalizedLink string, submittedBy int64) (*model.Task, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (platform, action, link, normalized_link, submitted_by) VALUES (?, ?, ?, ?, ?)`,
		platform, action, link, normalizedLink, submittedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns every task, newest first, including inactive ones.
func (s *TaskStore) List() ([]model.Task, error) {
	rows, err := s.db.Query(`SELECT ` + taskCols + ` FROM tasks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListForUser returns the viewer's feed: active tasks not yet completed by
// them, newest first, with their own submissions flagged.
func (s *TaskStore) ListForUser(userID int64) ([]model.TaskView, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+`, submitted_by = ? AS mine
		 FROM tasks
		 WHERE active = 1
		   AND NOT EXISTS (
		     SELECT 1 FROM completions WHERE completions.task_id = tasks.id AND completions.user_id = ?
		   )
		 ORDER BY created_at DESC, id DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks for user: %w", err)
	}
	defer rows.Close()

	var views []model.TaskView
	for rows.Next() {
		var v model.TaskView
		var active, mine int
		err := rows.Scan(
			&v.ID, &v.Platform, &v.Action, &v.Link, &v.NormalizedLink,
			&v.SubmittedBy, &active, &v.CreatedAt, &mine,
		)
		if err != nil {
			return nil, fmt.Errorf("scan task view: %w", err)
		}
		v.Active = active != 0
		v.Mine = mine != 0
		views = append(views, v)
	}
	return views, rows.Err()
}

// Deactivate flips a task inactive. Idempotent: deactivating an already
// inactive task succeeds. Returns false when the task does not exist.
func (s *TaskStore) Deactivate(id int64) (bool, error) {
	result, err := s.db.Exec(`UPDATE tasks SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deactivate task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// CountTasks returns the total number of tasks, active or not.
func (s *TaskStore) CountTasks() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// RecordCompletion appends the completion record and credits the reward in a
// single transaction. The UNIQUE(task_id, user_id) index makes the insert the
// atomic claim: under concurrent identical requests exactly one transaction
// commits, the loser fails on the constraint and rolls back without touching
// the balance. Returns the new balance.
func (s *TaskStore) RecordCompletion(taskID, userID int64, reward int) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO completions (task_id, user_id, points_earned) VALUES (?, ?, ?)`,
		taskID, userID, reward,
	); err != nil {
		return 0, fmt.Errorf("insert completion: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE users SET points = points + ? WHERE id = ?`,
		reward, userID,
	); err != nil {
		return 0, fmt.Errorf("credit reward: %w", err)
	}

	var balance int
	if err := tx.QueryRow(`SELECT points FROM users WHERE id = ?`, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit completion: %w", err)
	}
	return balance, nil
}

// ListCompletionsByUser returns a user's completion history joined with task
// details, newest first. Includes completions of since-deactivated tasks.
func (s *TaskStore) ListCompletionsByUser(userID int64) ([]model.CompletionDetail, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.task_id, t.platform, t.action, t.link, c.points_earned, c.completed_at
		 FROM completions c
		 JOIN tasks t ON t.id = c.task_id
		 WHERE c.user_id = ?
		 ORDER BY c.completed_at DESC, c.id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var details []model.CompletionDetail
	for rows.Next() {
		var d model.CompletionDetail
		err := rows.Scan(&d.ID, &d.TaskID, &d.Platform, &d.Action, &d.Link, &d.PointsEarned, &d.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// EarnedPoints recomputes a user's lifetime earnings from completion history.
// Used by audits to reconcile the materialized balance against the ledger.
func (s *TaskStore) EarnedPoints(userID int64) (int, error) {
	var earned sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(points_earned), 0) FROM completions WHERE user_id = ?`,
		userID,
	).Scan(&earned)
	if err != nil {
		return 0, fmt.Errorf("sum points earned: %w", err)
	}
	return int(earned.Int64), nil
}
