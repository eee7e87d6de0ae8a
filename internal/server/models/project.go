package models

import "time"

// Project is the per-user workspace created on first login.
type Project struct {
	ProjectID string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserDetail links an application user to a project.
type UserDetail struct {
	ID        int64
	UserID    string
	Email     string
	ProjectID string
	// Subject is NULL until the identity provider subject is known.
	Subject   *string
	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectAssignment is what EnsureProject hands back to callers.
type ProjectAssignment struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

// ProjectSummary is a row of the user's project listing.
type ProjectSummary struct {
	ProjectID string     `json:"project_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}
