package types

import (
	"time"

	"github.com/linkupapp/linkup/id"
	"github.com/linkupapp/linkup/validator"
)

type ConnectionStatus string

const (
	ConnectionStatusPending  ConnectionStatus = "pending"
	ConnectionStatusAccepted ConnectionStatus = "accepted"
	ConnectionStatusDeclined ConnectionStatus = "declined"
)

func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionStatusPending, ConnectionStatusAccepted, ConnectionStatusDeclined:
		return true
	}
	return false
}

// Connection is a pairwise request-to-chat relationship scoped to one
// activity. The requester initiated it; for queries it is undirected.
type Connection struct {
	ID          string           `db:"id" json:"connectionID"`
	RequesterID string           `db:"requester_id" json:"requesterID"`
	RecipientID string           `db:"recipient_id" json:"recipientID"`
	ActivityID  string           `db:"activity_id" json:"activityID"`
	Status      ConnectionStatus `db:"status" json:"status"`
	ChatEnabled bool             `db:"chat_enabled" json:"chatEnabled"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
}

// Party reports whether the given user is either end of the connection.
func (c Connection) Party(userID string) bool {
	return c.RequesterID == userID || c.RecipientID == userID
}

// EnsureConnection is the idempotent-create input. It is produced
// internally by a join, never decoded off the wire.
type EnsureConnection struct {
	RequesterID string
	RecipientID string
	ActivityID  string
}

func (in *EnsureConnection) Validate() error {
	v := validator.New()

	if in.RequesterID == "" {
		v.AddError("RequesterID", "Requester ID is required")
	}
	if in.RecipientID == "" {
		v.AddError("RecipientID", "Recipient ID is required")
	}
	if in.RequesterID == in.RecipientID {
		v.AddError("RecipientID", "Cannot connect a user with themselves")
	}
	if !id.Valid(in.ActivityID) {
		v.AddError("ActivityID", "Activity ID is invalid")
	}

	return v.AsError()
}

type RetrieveConnection struct {
	ConnectionID string
}

func (in *RetrieveConnection) Validate() error {
	v := validator.New()

	if in.ConnectionID == "" {
		v.AddError("ConnectionID", "Connection ID is required")
	}
	if !id.Valid(in.ConnectionID) {
		v.AddError("ConnectionID", "Connection ID is invalid")
	}

	return v.AsError()
}

type RespondToConnection struct {
	ConnectionID string `json:"-"`
	Accept       bool   `json:"accept"`

	loggedInUserID string
}

func (in *RespondToConnection) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in RespondToConnection) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *RespondToConnection) Validate() error {
	v := validator.New()

	if in.ConnectionID == "" {
		v.AddError("ConnectionID", "Connection ID is required")
	}
	if !id.Valid(in.ConnectionID) {
		v.AddError("ConnectionID", "Connection ID is invalid")
	}

	return v.AsError()
}

type ListConnections struct {
	Status   *ConnectionStatus
	PageArgs PageArgs

	loggedInUserID string
}

func (in *ListConnections) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListConnections) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ListConnections) Validate() error {
	v := validator.New()

	if in.Status != nil && !in.Status.Valid() {
		v.AddError("Status", "Invalid connection status")
	}

	return v.AsError()
}

type ListPendingConnections struct {
	PageArgs PageArgs

	loggedInUserID string
}

func (in *ListPendingConnections) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListPendingConnections) LoggedInUserID() string {
	return in.loggedInUserID
}
