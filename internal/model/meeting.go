package model

import "time"

// Series is the API view of a meeting series.
type Series struct {
	ID          string      `json:"id"`
	TenantID    string      `json:"tenant_id"`
	BranchID    *string     `json:"branch_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	StartAt     time.Time   `json:"start_at"`
	EndAt       *time.Time  `json:"end_at,omitempty"`
	Timezone    string      `json:"timezone,omitempty"`
	Recurrence  *Recurrence `json:"recurrence,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Occurrence is a derived concrete meeting instance. It is never persisted;
// identical inputs always yield an identical set.
type Occurrence struct {
	ID          string     `json:"id"`
	SeriesID    string     `json:"series_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Timezone    string     `json:"timezone,omitempty"`
}

// CreateSeriesRequest is the request body for POST /meetings.
type CreateSeriesRequest struct {
	BranchID    *string     `json:"branch_id"`
	Title       string      `json:"title" binding:"required"`
	Description string      `json:"description"`
	StartAt     time.Time   `json:"start_at" binding:"required"`
	EndAt       *time.Time  `json:"end_at"`
	Timezone    string      `json:"timezone"`
	Recurrence  *Recurrence `json:"recurrence"`
}

// UpdateSeriesRequest is the request body for PATCH /meetings/:id.
type UpdateSeriesRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	StartAt     *time.Time  `json:"start_at"`
	EndAt       *time.Time  `json:"end_at"`
	Timezone    *string     `json:"timezone"`
	Recurrence  *Recurrence `json:"recurrence"`
	BranchID    *string     `json:"branch_id"`
}
