package model

import "time"

type Task struct {
	ID             int64     `json:"id"`
	Platform       string    `json:"platform"`
	Action         string    `json:"action"`
	Link           string    `json:"link"`
	NormalizedLink string    `json:"-"`
	SubmittedBy    int64     `json:"submitted_by"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// TaskView is a Task decorated for a specific viewer: Mine marks tasks the
// viewer submitted themselves, so the consuming layer can disable completion.
type TaskView struct {
	Task
	Mine bool `json:"mine"`
}

type Completion struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	UserID       int64     `json:"user_id"`
	PointsEarned int       `json:"points_earned"`
	CompletedAt  time.Time `json:"completed_at"`
}

// CompletionDetail joins a completion with the task it belongs to, for the
// admin audit view.
type CompletionDetail struct {
	ID           int64     `json:"id"`
	TaskID       int64     `json:"task_id"`
	Platform     string    `json:"platform"`
	Action       string    `json:"action"`
	Link         string    `json:"link"`
	PointsEarned int       `json:"points_earned"`
	CompletedAt  time.Time `json:"completed_at"`
}
