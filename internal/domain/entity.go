package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity carries the identity and bookkeeping fields shared by every
// persisted type. It is embedded by value, not inherited.
type Entity struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	Deleted   bool       `json:"-"`
}

func NewEntity() Entity {
	return Entity{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}
}

func (e *Entity) Touch() {
	now := time.Now().UTC()
	e.UpdatedAt = &now
}

// SoftDelete marks the entity deleted. Rows are never physically removed.
func (e *Entity) SoftDelete() {
	e.Deleted = true
	e.Touch()
}
