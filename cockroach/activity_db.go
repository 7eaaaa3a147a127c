package cockroach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"

	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/id"
	"github.com/linkupapp/linkup/ptr"
	"github.com/linkupapp/linkup/types"
)

// The location column stays out of this list: it only feeds the
// spatial index and does not scan into the record.
var activityColumns = [...]string{
	"activities.id",
	"activities.user_id",
	"activities.category",
	"activities.lat",
	"activities.lon",
	"activities.place_name",
	"activities.description",
	"activities.mood",
	"activities.scheduled_time",
	"activities.expires_at",
	"activities.max_participants",
	"activities.participant_count",
	"activities.is_public",
	"activities.status",
	"activities.created_at",
	"activities.updated_at",
}

var activityColumnsStr = strings.Join(activityColumns[:], ", ")

func (c *Cockroach) CreateActivity(ctx context.Context, in types.CreateActivity) (types.Activity, error) {
	var out types.Activity

	scheduledTime := ptr.Or(in.ScheduledTime, time.Now().UTC())

	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		q := `
			INSERT INTO activities (
				id, user_id, category, lat, lon, location,
				place_name, description, mood,
				scheduled_time, expires_at, max_participants, is_public
			)
			VALUES (
				@activity_id, @user_id, @category, @lat, @lon,
				ST_SetSRID(ST_MakePoint(@lon, @lat), 4326)::GEOGRAPHY,
				@place_name, @description, @mood,
				@scheduled_time, @expires_at, @max_participants, @is_public
			)
			RETURNING ` + activityColumnsStr + `
		`

		rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
			"activity_id":      id.Generate(),
			"user_id":          in.LoggedInUserID(),
			"category":         in.Category,
			"lat":              in.Lat,
			"lon":              in.Lon,
			"place_name":       in.PlaceName,
			"description":      in.Description,
			"mood":             in.Mood,
			"scheduled_time":   scheduledTime,
			"expires_at":       scheduledTime.Add(types.ActivityDuration),
			"max_participants": ptr.Or(in.MaxParticipants, types.DefaultMaxParticipants),
			"is_public":        ptr.Or(in.IsPublic, true),
		})
		if err != nil {
			return fmt.Errorf("sql insert activity: %w", err)
		}

		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Activity])
		if err != nil {
			return fmt.Errorf("sql collect inserted activity: %w", err)
		}

		// The owner is a participant from creation.
		if err := c.insertParticipant(ctx, out.ID, out.UserID); err != nil {
			return err
		}

		return nil
	})
}

func (c *Cockroach) insertParticipant(ctx context.Context, activityID, userID string) error {
	const q = `
		INSERT INTO activity_participants (activity_id, user_id)
		VALUES (@activity_id, @user_id)
	`

	_, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"activity_id": activityID,
		"user_id":     userID,
	})
	if isUniqueViolation(err) {
		return errs.AlreadyJoined
	}

	if err != nil {
		return fmt.Errorf("sql insert participant: %w", err)
	}

	return nil
}

func (c *Cockroach) Activity(ctx context.Context, activityID string) (types.Activity, error) {
	var out types.Activity

	q := `
		SELECT ` + activityColumnsStr + `
		FROM activities
		WHERE activities.id = @activity_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"activity_id": activityID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select activity: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Activity])
	if db.IsNotFoundError(err) {
		return out, errs.ActivityNotFound
	}

	if err != nil {
		return out, fmt.Errorf("sql collect selected activity: %w", err)
	}

	return out, nil
}

func (c *Cockroach) Activities(ctx context.Context, in types.ListActivities) (types.Page[types.Activity], error) {
	var out types.Page[types.Activity]

	pageArgs, err := ParsePageArgs[time.Time](in.PageArgs)
	if err != nil {
		return out, err
	}

	filters := []string{"activities.user_id = @user_id"}
	args := pgx.NamedArgs{
		"user_id": in.UserID,
		"limit":   pageArgs.Limit() + 1,
	}

	if in.Status != nil {
		filters = append(filters, "activities.status = @status")
		args["status"] = *in.Status
	}
	if pageArgs.After != nil {
		filters = append(filters, "(activities.created_at, activities.id) < (@after_value, @after_id)")
		args["after_value"] = pageArgs.After.Value
		args["after_id"] = pageArgs.After.ID
	}

	q := `
		SELECT ` + activityColumnsStr + `
		FROM activities
	` + where(filters) + `
		ORDER BY activities.created_at DESC, activities.id DESC
		LIMIT @limit
	`

	rows, err := c.db.Query(ctx, q, args)
	if err != nil {
		return out, fmt.Errorf("sql select activities: %w", err)
	}

	out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Activity])
	if err != nil {
		return out, fmt.Errorf("sql collect activities: %w", err)
	}

	err = applyPageInfo(&out, pageArgs, func(a types.Activity) Cursor[time.Time] {
		return Cursor[time.Time]{ID: a.ID, Value: a.CreatedAt}
	})

	return out, err
}

func (c *Cockroach) UpdateActivity(ctx context.Context, in types.UpdateActivity) (types.Activity, error) {
	var out types.Activity

	sets := []string{"updated_at = now()"}
	args := pgx.NamedArgs{
		"activity_id": in.ActivityID,
		"user_id":     in.LoggedInUserID(),
		"active":      types.ActivityStatusActive,
	}

	if in.PlaceName != nil {
		sets = append(sets, "place_name = @place_name")
		args["place_name"] = *in.PlaceName
	}
	if in.ScheduledTime != nil {
		sets = append(sets, "scheduled_time = @scheduled_time", "expires_at = @expires_at")
		args["scheduled_time"] = *in.ScheduledTime
		args["expires_at"] = in.ScheduledTime.Add(types.ActivityDuration)
	}
	if in.Mood != nil {
		sets = append(sets, "mood = @mood")
		args["mood"] = *in.Mood
	}
	if in.Description != nil {
		sets = append(sets, "description = @description")
		args["description"] = *in.Description
	}
	if in.MaxParticipants != nil {
		sets = append(sets, "max_participants = @max_participants")
		args["max_participants"] = *in.MaxParticipants
	}
	if in.IsPublic != nil {
		sets = append(sets, "is_public = @is_public")
		args["is_public"] = *in.IsPublic
	}
	if in.Status != nil {
		sets = append(sets, "status = @status")
		args["status"] = *in.Status
	}

	// Terminal activities are frozen: completed and cancelled rows
	// never mutate, and in particular never flip back to active.
	q := `
		UPDATE activities
		SET ` + strings.Join(sets, ", ") + `
		WHERE id = @activity_id
			AND user_id = @user_id
			AND status = @active
		RETURNING ` + activityColumnsStr + `
	`

	rows, err := c.db.Query(ctx, q, args)
	if err != nil {
		return out, fmt.Errorf("sql update activity: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Activity])
	if isCheckViolation(err) {
		return out, errs.MaxParticipantsTooLow
	}

	if db.IsNotFoundError(err) {
		current, currentErr := c.Activity(ctx, in.ActivityID)
		if currentErr == nil && current.UserID == in.LoggedInUserID() {
			return out, errs.ActivityNotActive
		}
		return out, errs.NotActivityOwner
	}

	if err != nil {
		return out, fmt.Errorf("sql collect updated activity: %w", err)
	}

	return out, nil
}

// CancelActivity reports whether a row actually transitioned. An
// already-terminal activity or a non-owner caller both report false.
func (c *Cockroach) CancelActivity(ctx context.Context, in types.CancelActivity) (bool, error) {
	const q = `
		UPDATE activities
		SET status = @cancelled, updated_at = now()
		WHERE id = @activity_id
			AND user_id = @user_id
			AND status = @active
	`

	tag, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"activity_id": in.ActivityID,
		"user_id":     in.LoggedInUserID(),
		"cancelled":   types.ActivityStatusCancelled,
		"active":      types.ActivityStatusActive,
	})
	if err != nil {
		return false, fmt.Errorf("sql cancel activity: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// JoinActivity adds the user to the activity and ensures the pending
// connection with the owner, all in one transaction. If any part
// fails the whole join rolls back, so a participant never exists
// without its connection.
func (c *Cockroach) JoinActivity(ctx context.Context, in types.JoinActivity) (types.Activity, types.Connection, error) {
	var outActivity types.Activity
	var outConnection types.Connection

	err := c.db.RunTx(ctx, func(ctx context.Context) error {
		activity, err := c.Activity(ctx, in.ActivityID)
		if err != nil {
			return err
		}

		if activity.Status != types.ActivityStatusActive {
			return errs.ActivityNotActive
		}

		if err := c.insertParticipant(ctx, in.ActivityID, in.LoggedInUserID()); err != nil {
			return err
		}

		// Capacity is enforced by this conditional increment, not by
		// the read above: two racing joins serialize here.
		const q = `
			UPDATE activities
			SET participant_count = participant_count + 1, updated_at = now()
			WHERE id = @activity_id
				AND status = @active
				AND participant_count < max_participants
		`

		tag, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
			"activity_id": in.ActivityID,
			"active":      types.ActivityStatusActive,
		})
		if err != nil {
			return fmt.Errorf("sql increment participant count: %w", err)
		}

		if tag.RowsAffected() == 0 {
			current, err := c.Activity(ctx, in.ActivityID)
			if err != nil {
				return err
			}
			if current.Status != types.ActivityStatusActive {
				return errs.ActivityNotActive
			}
			return errs.ActivityFull
		}

		conn, err := c.EnsureConnection(ctx, types.EnsureConnection{
			RequesterID: in.LoggedInUserID(),
			RecipientID: activity.UserID,
			ActivityID:  in.ActivityID,
		})
		if err != nil {
			return err
		}

		updated, err := c.Activity(ctx, in.ActivityID)
		if err != nil {
			return err
		}

		outActivity = updated
		outConnection = conn

		return nil
	})

	return outActivity, outConnection, err
}

// LeaveActivity reports whether the user was actually removed. A
// missing activity or a non-participant both report false.
func (c *Cockroach) LeaveActivity(ctx context.Context, in types.LeaveActivity) (bool, error) {
	var out bool

	err := c.db.RunTx(ctx, func(ctx context.Context) error {
		activity, err := c.Activity(ctx, in.ActivityID)
		if errors.Is(err, errs.ActivityNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if activity.UserID == in.LoggedInUserID() {
			return errs.CreatorCannotLeave
		}

		const del = `
			DELETE FROM activity_participants
			WHERE activity_id = @activity_id
				AND user_id = @user_id
		`

		tag, err := c.db.Exec(ctx, del, pgx.StrictNamedArgs{
			"activity_id": in.ActivityID,
			"user_id":     in.LoggedInUserID(),
		})
		if err != nil {
			return fmt.Errorf("sql delete participant: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return nil
		}

		const dec = `
			UPDATE activities
			SET participant_count = participant_count - 1, updated_at = now()
			WHERE id = @activity_id
		`

		if _, err := c.db.Exec(ctx, dec, pgx.StrictNamedArgs{
			"activity_id": in.ActivityID,
		}); err != nil {
			return fmt.Errorf("sql decrement participant count: %w", err)
		}

		out = true

		return nil
	})

	return out, err
}

// SweepExpired transitions every overdue active activity to
// completed. The status predicate makes it idempotent and safe under
// concurrent sweeps.
func (c *Cockroach) SweepExpired(ctx context.Context) (int64, error) {
	const q = `
		UPDATE activities
		SET status = @completed, updated_at = now()
		WHERE status = @active
			AND expires_at < now()
	`

	tag, err := c.db.Exec(ctx, q, pgx.StrictNamedArgs{
		"completed": types.ActivityStatusCompleted,
		"active":    types.ActivityStatusActive,
	})
	if err != nil {
		return 0, fmt.Errorf("sql sweep expired activities: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (c *Cockroach) Participants(ctx context.Context, activityID string) ([]types.Participant, error) {
	if _, err := c.Activity(ctx, activityID); err != nil {
		return nil, err
	}

	const q = `
		SELECT activity_participants.user_id,
			activity_participants.user_id = activities.user_id AS is_owner,
			activity_participants.created_at AS joined_at
		FROM activity_participants
		INNER JOIN activities ON activities.id = activity_participants.activity_id
		WHERE activity_participants.activity_id = @activity_id
		ORDER BY activity_participants.created_at ASC
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"activity_id": activityID,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select participants: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Participant])
	if err != nil {
		return nil, fmt.Errorf("sql collect participants: %w", err)
	}

	return out, nil
}

func (c *Cockroach) ActivityStats(ctx context.Context) (types.ActivityStats, error) {
	out := types.ActivityStats{ByCategory: map[types.Category]int64{}}

	const totals = `
		SELECT count(*) AS total,
			count(*) FILTER (WHERE status = @active AND expires_at > now()) AS live
		FROM activities
	`

	err := c.db.QueryRow(ctx, totals, pgx.StrictNamedArgs{
		"active": types.ActivityStatusActive,
	}).Scan(&out.Total, &out.Active)
	if err != nil {
		return out, fmt.Errorf("sql select activity totals: %w", err)
	}

	const byCategory = `
		SELECT category, count(*) AS count
		FROM activities
		WHERE status = @active
		GROUP BY category
		ORDER BY count DESC
	`

	rows, err := c.db.Query(ctx, byCategory, pgx.StrictNamedArgs{
		"active": types.ActivityStatusActive,
	})
	if err != nil {
		return out, fmt.Errorf("sql select activity counts by category: %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var category types.Category
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return out, fmt.Errorf("sql scan activity count: %w", err)
		}
		out.ByCategory[category] = count
	}

	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("sql iterate activity counts: %w", err)
	}

	return out, nil
}

// NearbyActivities returns public, active, non-expired activities
// within the radius, in the index's approximate distance order. The
// caller re-sorts by exact great-circle distance.
func (c *Cockroach) NearbyActivities(ctx context.Context, in types.NearbyActivities) ([]types.Activity, error) {
	filters := []string{
		"activities.status = @active",
		"activities.is_public",
		"activities.expires_at > now()",
		"ST_DWithin(activities.location, ST_SetSRID(ST_MakePoint(@lon, @lat), 4326)::GEOGRAPHY, @radius_m)",
	}
	args := pgx.NamedArgs{
		"active":   types.ActivityStatusActive,
		"lat":      in.Lat,
		"lon":      in.Lon,
		"radius_m": in.RadiusKm * 1000,
		"limit":    in.Limit,
	}

	if in.Category != nil {
		filters = append(filters, "activities.category = @category")
		args["category"] = *in.Category
	}
	if in.Mood != nil {
		filters = append(filters, "activities.mood = @mood")
		args["mood"] = *in.Mood
	}
	if in.ExcludeUserID != nil {
		filters = append(filters, "activities.user_id != @exclude_user_id")
		args["exclude_user_id"] = *in.ExcludeUserID
	}

	q := `
		SELECT ` + activityColumnsStr + `
		FROM activities
	` + where(filters) + `
		ORDER BY ST_Distance(activities.location, ST_SetSRID(ST_MakePoint(@lon, @lat), 4326)::GEOGRAPHY) ASC,
			activities.created_at ASC
		LIMIT @limit
	`

	rows, err := c.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("sql select nearby activities: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Activity])
	if err != nil {
		return nil, fmt.Errorf("sql collect nearby activities: %w", err)
	}

	return out, nil
}

// MatchActivities is the "who else is doing X near me right now"
// query: same category, someone else's, inside the time window, with
// room available.
func (c *Cockroach) MatchActivities(ctx context.Context, in types.MatchActivities) ([]types.Activity, error) {
	q := `
		SELECT ` + activityColumnsStr + `
		FROM activities
		WHERE activities.category = @category
			AND activities.status = @active
			AND activities.is_public
			AND activities.user_id != @user_id
			AND activities.scheduled_time BETWEEN @window_start AND @window_end
			AND activities.participant_count < activities.max_participants
			AND ST_DWithin(activities.location, ST_SetSRID(ST_MakePoint(@lon, @lat), 4326)::GEOGRAPHY, @radius_m)
		ORDER BY ST_Distance(activities.location, ST_SetSRID(ST_MakePoint(@lon, @lat), 4326)::GEOGRAPHY) ASC
		LIMIT @limit
	`

	now := time.Now().UTC()

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"category":     in.Category,
		"active":       types.ActivityStatusActive,
		"user_id":      in.LoggedInUserID(),
		"window_start": now.Add(-types.MatchLookbackHours * time.Hour),
		"window_end":   now.Add(time.Duration(in.TimeWindowHours) * time.Hour),
		"lat":          in.Lat,
		"lon":          in.Lon,
		"radius_m":     in.RadiusKm * 1000,
		"limit":        types.MatchLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("sql select matching activities: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Activity])
	if err != nil {
		return nil, fmt.Errorf("sql collect matching activities: %w", err)
	}

	return out, nil
}
