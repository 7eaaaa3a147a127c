package types

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/linkupapp/linkup/id"
	"github.com/linkupapp/linkup/validator"
)

// ActivityDuration is how long an activity stays discoverable
// after its scheduled time.
const ActivityDuration = 4 * time.Hour

const (
	MinParticipants        = 2
	MaxParticipants        = 20
	DefaultMaxParticipants = 5
)

type ActivityStatus string

const (
	ActivityStatusActive    ActivityStatus = "active"
	ActivityStatusCompleted ActivityStatus = "completed"
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityStatusActive, ActivityStatusCompleted, ActivityStatusCancelled:
		return true
	}
	return false
}

type Activity struct {
	ID               string         `db:"id" json:"activityID"`
	UserID           string         `db:"user_id" json:"userID"`
	Category         Category       `db:"category" json:"category"`
	Lat              float64        `db:"lat" json:"lat"`
	Lon              float64        `db:"lon" json:"lon"`
	PlaceName        *string        `db:"place_name" json:"placeName"`
	Description      *string        `db:"description" json:"description"`
	Mood             *Mood          `db:"mood" json:"mood"`
	ScheduledTime    time.Time      `db:"scheduled_time" json:"scheduledTime"`
	ExpiresAt        time.Time      `db:"expires_at" json:"expiresAt"`
	MaxParticipants  int32          `db:"max_participants" json:"maxParticipants"`
	ParticipantCount int32          `db:"participant_count" json:"participantCount"`
	IsPublic         bool           `db:"is_public" json:"isPublic"`
	Status           ActivityStatus `db:"status" json:"status"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updatedAt"`
}

// CategoryInfo exposes the presentational metadata of the
// activity's category alongside the record.
func (a Activity) CategoryInfo() CategoryInfo {
	return a.Category.Info()
}

type CreateActivity struct {
	Category        Category   `json:"category"`
	Lat             float64    `json:"lat"`
	Lon             float64    `json:"lon"`
	PlaceName       *string    `json:"placeName"`
	ScheduledTime   *time.Time `json:"scheduledTime"`
	Mood            *Mood      `json:"mood"`
	Description     *string    `json:"description"`
	MaxParticipants *int32     `json:"maxParticipants"`
	IsPublic        *bool      `json:"isPublic"`

	loggedInUserID string
}

func (in *CreateActivity) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CreateActivity) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CreateActivity) Validate() error {
	v := validator.New()

	if !in.Category.Valid() {
		v.AddError("Category", "Invalid activity category")
	}
	if in.Mood != nil && !in.Mood.Valid() {
		v.AddError("Mood", "Invalid mood")
	}

	validateCoordinates(v, in.Lat, in.Lon)

	if in.PlaceName != nil {
		*in.PlaceName = strings.TrimSpace(*in.PlaceName)
		if utf8.RuneCountInString(*in.PlaceName) > 140 {
			v.AddError("PlaceName", "Place name must be at most 140 characters")
		}
	}
	if in.Description != nil {
		*in.Description = strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(*in.Description) > 500 {
			v.AddError("Description", "Description must be at most 500 characters")
		}
	}
	if in.MaxParticipants != nil && (*in.MaxParticipants < MinParticipants || *in.MaxParticipants > MaxParticipants) {
		v.AddError("MaxParticipants", "Max participants must be between 2 and 20")
	}

	return v.AsError()
}

func validateCoordinates(v *validator.Validator, lat, lon float64) {
	if lat < -90 || lat > 90 {
		v.AddError("Lat", "Latitude must be between -90 and 90")
	}
	if lon < -180 || lon > 180 {
		v.AddError("Lon", "Longitude must be between -180 and 180")
	}
}

type RetrieveActivity struct {
	ActivityID string
}

func (in *RetrieveActivity) Validate() error {
	v := validator.New()

	if in.ActivityID == "" {
		v.AddError("ActivityID", "Activity ID is required")
	}
	if !id.Valid(in.ActivityID) {
		v.AddError("ActivityID", "Activity ID is invalid")
	}

	return v.AsError()
}

type ListActivities struct {
	UserID   string
	Status   *ActivityStatus
	PageArgs PageArgs
}

func (in *ListActivities) Validate() error {
	v := validator.New()

	if in.UserID == "" {
		v.AddError("UserID", "User ID is required")
	}
	if in.Status != nil && !in.Status.Valid() {
		v.AddError("Status", "Invalid activity status")
	}

	return v.AsError()
}

// UpdateActivity carries the owner-editable field whitelist.
// Absent pointers leave the stored value untouched.
type UpdateActivity struct {
	ActivityID string `json:"-"`

	PlaceName       *string         `json:"placeName"`
	ScheduledTime   *time.Time      `json:"scheduledTime"`
	Mood            *Mood           `json:"mood"`
	Description     *string         `json:"description"`
	MaxParticipants *int32          `json:"maxParticipants"`
	IsPublic        *bool           `json:"isPublic"`
	Status          *ActivityStatus `json:"status"`

	loggedInUserID string
}

func (in *UpdateActivity) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in UpdateActivity) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *UpdateActivity) Validate() error {
	v := validator.New()

	if in.ActivityID == "" {
		v.AddError("ActivityID", "Activity ID is required")
	}
	if !id.Valid(in.ActivityID) {
		v.AddError("ActivityID", "Activity ID is invalid")
	}
	if in.Mood != nil && !in.Mood.Valid() {
		v.AddError("Mood", "Invalid mood")
	}
	if in.Status != nil && !in.Status.Valid() {
		v.AddError("Status", "Invalid activity status")
	}
	if in.MaxParticipants != nil && (*in.MaxParticipants < MinParticipants || *in.MaxParticipants > MaxParticipants) {
		v.AddError("MaxParticipants", "Max participants must be between 2 and 20")
	}
	if in.Description != nil {
		*in.Description = strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(*in.Description) > 500 {
			v.AddError("Description", "Description must be at most 500 characters")
		}
	}
	if in.PlaceName != nil {
		*in.PlaceName = strings.TrimSpace(*in.PlaceName)
		if utf8.RuneCountInString(*in.PlaceName) > 140 {
			v.AddError("PlaceName", "Place name must be at most 140 characters")
		}
	}

	return v.AsError()
}

type CancelActivity struct {
	ActivityID string

	loggedInUserID string
}

func (in *CancelActivity) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in CancelActivity) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *CancelActivity) Validate() error {
	v := validator.New()

	if in.ActivityID == "" {
		v.AddError("ActivityID", "Activity ID is required")
	}
	if !id.Valid(in.ActivityID) {
		v.AddError("ActivityID", "Activity ID is invalid")
	}

	return v.AsError()
}

type JoinActivity struct {
	ActivityID string

	loggedInUserID string
}

func (in *JoinActivity) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in JoinActivity) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *JoinActivity) Validate() error {
	v := validator.New()

	if in.ActivityID == "" {
		v.AddError("ActivityID", "Activity ID is required")
	}
	if !id.Valid(in.ActivityID) {
		v.AddError("ActivityID", "Activity ID is invalid")
	}

	return v.AsError()
}

type LeaveActivity struct {
	ActivityID string

	loggedInUserID string
}

func (in *LeaveActivity) SetLoggedInUserID(userID string) {
	in.loggedInUserID = userID
}

func (in LeaveActivity) LoggedInUserID() string {
	return in.loggedInUserID
}

func (in *LeaveActivity) Validate() error {
	v := validator.New()

	if in.ActivityID == "" {
		v.AddError("ActivityID", "Activity ID is required")
	}
	if !id.Valid(in.ActivityID) {
		v.AddError("ActivityID", "Activity ID is invalid")
	}

	return v.AsError()
}

// Participant is one member of an activity, with enough user
// detail to render a roster.
type Participant struct {
	UserID   string    `db:"user_id" json:"userID"`
	IsOwner  bool      `db:"is_owner" json:"isOwner"`
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

// ActivityStats summarizes the activity table for the stats endpoint.
type ActivityStats struct {
	Total      int64              `json:"total"`
	Active     int64              `json:"active"`
	ByCategory map[Category]int64 `json:"byCategory"`
}
