package domain

import "time"

// Department represents a high-level organizational unit.
type Department struct {
	ID        int
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
