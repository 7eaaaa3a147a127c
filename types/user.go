package types

import (
	"time"
	"unicode/utf8"

	"github.com/linkupapp/linkup/validator"
)

// User is the minimal identity record. The ID is the external,
// already-authenticated identifier passed in verbatim by the caller.
type User struct {
	ID        string    `db:"id" json:"userID"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type RetrieveUser struct {
	UserID string
}

func (in *RetrieveUser) Validate() error {
	v := validator.New()

	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}

	return v.AsError()
}

// EnsureUser lazily creates the identity record so unknown callers
// do not trip foreign keys on their first create or join.
type EnsureUser struct {
	UserID string
}

func (in *EnsureUser) Validate() error {
	v := validator.New()

	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if utf8.RuneCountInString(in.UserID) > 128 {
		v.AddError("UserID", "User ID must be at most 128 characters")
	}

	return v.AsError()
}
