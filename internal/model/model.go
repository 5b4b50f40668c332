package model

import "time"

const DateLayout = "2006-01-02"

type List struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"-"`
	ListID      int64      `json:"list_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	EventType string    `json:"event_type"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Status partitions task listings by completion.
type Status string

const (
	StatusAll       Status = "all"
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAll, StatusCompleted, StatusPending:
		return true
	}
	return false
}

// Next cycles all -> pending -> completed -> all.
func (s Status) Next() Status {
	switch s {
	case StatusAll:
		return StatusPending
	case StatusPending:
		return StatusCompleted
	default:
		return StatusAll
	}
}

type Filter struct {
	Search string `json:"search"`
	Status Status `json:"status"`
}

// Page is the pagination envelope returned by every listing.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	From        int `json:"from"`
	To          int `json:"to"`
}

// PageBounds resolves the requested page against total and perPage. The
// returned page is clamped to [1, lastPage]; from and to are the 1-based
// inclusive bounds of that page, both 0 when total is 0.
func PageBounds(total, perPage, requested int) (page, lastPage, offset, from, to int) {
	if perPage < 1 {
		perPage = 1
	}
	lastPage = (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	page = requested
	if page < 1 {
		page = 1
	}
	if page > lastPage {
		page = lastPage
	}
	offset = (page - 1) * perPage
	if total == 0 {
		return page, lastPage, offset, 0, 0
	}
	from = offset + 1
	to = min(offset+perPage, total)
	return page, lastPage, offset, from, to
}
