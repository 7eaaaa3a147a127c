package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/linkupapp/linkup/id"
	"github.com/linkupapp/linkup/validator"
)

type Message struct {
	ID           string    `db:"id" json:"messageID"`
	ConnectionID string    `db:"connection_id" json:"connectionID"`
	UserID       string    `db:"user_id" json:"userID"`
	Content      string    `db:"content" json:"content"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type SendMessage struct {
	ConnectionID string `json:"-"`
	Content      string `json:"content"`

	loggedInUserID string
}

func (in *SendMessage) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in SendMessage) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *SendMessage) Validate() error {
	v := validator.New()

	if in.ConnectionID == "" {
		v.AddError("ConnectionID", "Connection ID is required")
	}
	if !id.Valid(in.ConnectionID) {
		v.AddError("ConnectionID", "Connection ID is invalid")
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		v.AddError("Content", "Content is required")
	}
	if utf8.RuneCountInString(in.Content) > 1000 {
		v.AddError("Content", "Content must be at most 1000 characters")
	}

	return v.AsError()
}

type ListMessages struct {
	ConnectionID string
	PageArgs     PageArgs

	loggedInUserID string
}

func (in *ListMessages) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in ListMessages) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *ListMessages) Validate() error {
	v := validator.New()

	if in.ConnectionID == "" {
		v.AddError("ConnectionID", "Connection ID is required")
	}
	if !id.Valid(in.ConnectionID) {
		v.AddError("ConnectionID", "Connection ID is invalid")
	}

	return v.AsError()
}
