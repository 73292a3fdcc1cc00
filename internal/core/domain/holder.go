package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountHolder owns accounts. Accounts reference their holder by id only;
// there is no live object graph and no cascade semantics.
type AccountHolder struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
