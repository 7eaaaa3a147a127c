package cockroach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"

	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/id"
	"github.com/linkupapp/linkup/types"
)

var connectionColumns = [...]string{
	"connections.id",
	"connections.requester_id",
	"connections.recipient_id",
	"connections.activity_id",
	"connections.status",
	"connections.chat_enabled",
	"connections.created_at",
	"connections.updated_at",
}

var connectionColumnsStr = strings.Join(connectionColumns[:], ", ")

// EnsureConnection is the idempotent create: at most one connection
// exists per unordered pair of users per activity. The unique index on
// (activity_id, user_a, user_b) backs this under concurrency; a losing
// insert re-fetches the winner's row.
func (c *Cockroach) EnsureConnection(ctx context.Context, in types.EnsureConnection) (types.Connection, error) {
	existing, err := c.connectionFromParties(ctx, in)
	if err == nil {
		return existing, nil
	}
	if !db.IsNotFoundError(err) {
		return existing, err
	}

	q := `
		INSERT INTO connections (id, requester_id, recipient_id, activity_id)
		VALUES (@connection_id, @requester_id, @recipient_id, @activity_id)
		RETURNING ` + connectionColumnsStr + `
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"connection_id": id.Generate(),
		"requester_id":  in.RequesterID,
		"recipient_id":  in.RecipientID,
		"activity_id":   in.ActivityID,
	})
	if err != nil {
		return types.Connection{}, fmt.Errorf("sql insert connection: %w", err)
	}

	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Connection])
	if isUniqueViolation(err) {
		return c.connectionFromParties(ctx, in)
	}

	if err != nil {
		return out, fmt.Errorf("sql collect inserted connection: %w", err)
	}

	return out, nil
}

func (c *Cockroach) connectionFromParties(ctx context.Context, in types.EnsureConnection) (types.Connection, error) {
	var out types.Connection

	q := `
		SELECT ` + connectionColumnsStr + `
		FROM connections
		WHERE connections.activity_id = @activity_id
			AND connections.user_a = least(@requester_id, @recipient_id)
			AND connections.user_b = greatest(@requester_id, @recipient_id)
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"activity_id":  in.ActivityID,
		"requester_id": in.RequesterID,
		"recipient_id": in.RecipientID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select connection from parties: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Connection])
	if err != nil && !db.IsNotFoundError(err) {
		return out, fmt.Errorf("sql collect connection from parties: %w", err)
	}

	return out, err
}

func (c *Cockroach) Connection(ctx context.Context, connectionID string) (types.Connection, error) {
	var out types.Connection

	q := `
		SELECT ` + connectionColumnsStr + `
		FROM connections
		WHERE connections.id = @connection_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"connection_id": connectionID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select connection: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Connection])
	if db.IsNotFoundError(err) {
		return out, errs.ConnectionNotFound
	}

	if err != nil {
		return out, fmt.Errorf("sql collect selected connection: %w", err)
	}

	return out, nil
}

// RespondToConnection flips a pending request exactly once. The status
// predicate ensures a second respond, even a racing one, changes
// nothing.
func (c *Cockroach) RespondToConnection(ctx context.Context, in types.RespondToConnection) (types.Connection, error) {
	var out types.Connection

	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		conn, err := c.Connection(ctx, in.ConnectionID)
		if err != nil {
			return err
		}

		if conn.RecipientID != in.LoggedInUserID() {
			return errs.NotRecipient
		}

		if conn.Status != types.ConnectionStatusPending {
			return errs.AlreadyResponded
		}

		status := types.ConnectionStatusDeclined
		if in.Accept {
			status = types.ConnectionStatusAccepted
		}

		q := `
			UPDATE connections
			SET status = @status, chat_enabled = @chat_enabled, updated_at = now()
			WHERE id = @connection_id
				AND status = @pending
			RETURNING ` + connectionColumnsStr + `
		`

		rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
			"connection_id": in.ConnectionID,
			"status":        status,
			"chat_enabled":  in.Accept,
			"pending":       types.ConnectionStatusPending,
		})
		if err != nil {
			return fmt.Errorf("sql respond to connection: %w", err)
		}

		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Connection])
		if db.IsNotFoundError(err) {
			return errs.AlreadyResponded
		}

		if err != nil {
			return fmt.Errorf("sql collect responded connection: %w", err)
		}

		return nil
	})
}

func (c *Cockroach) Connections(ctx context.Context, in types.ListConnections) (types.Page[types.Connection], error) {
	var out types.Page[types.Connection]

	pageArgs, err := ParsePageArgs[time.Time](in.PageArgs)
	if err != nil {
		return out, err
	}

	filters := []string{"(connections.requester_id = @user_id OR connections.recipient_id = @user_id)"}
	args := pgx.NamedArgs{
		"user_id": in.LoggedInUserID(),
		"limit":   pageArgs.Limit() + 1,
	}

	if in.Status != nil {
		filters = append(filters, "connections.status = @status")
		args["status"] = *in.Status
	}
	if pageArgs.After != nil {
		filters = append(filters, "(connections.updated_at, connections.id) < (@after_value, @after_id)")
		args["after_value"] = pageArgs.After.Value
		args["after_id"] = pageArgs.After.ID
	}

	q := `
		SELECT ` + connectionColumnsStr + `
		FROM connections
	` + where(filters) + `
		ORDER BY connections.updated_at DESC, connections.id DESC
		LIMIT @limit
	`

	rows, err := c.db.Query(ctx, q, args)
	if err != nil {
		return out, fmt.Errorf("sql select connections: %w", err)
	}

	out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Connection])
	if err != nil {
		return out, fmt.Errorf("sql collect connections: %w", err)
	}

	err = applyPageInfo(&out, pageArgs, func(c types.Connection) Cursor[time.Time] {
		return Cursor[time.Time]{ID: c.ID, Value: c.UpdatedAt}
	})

	return out, err
}

func (c *Cockroach) PendingConnections(ctx context.Context, in types.ListPendingConnections) (types.Page[types.Connection], error) {
	var out types.Page[types.Connection]

	pageArgs, err := ParsePageArgs[time.Time](in.PageArgs)
	if err != nil {
		return out, err
	}

	filters := []string{
		"connections.recipient_id = @user_id",
		"connections.status = @pending",
	}
	args := pgx.NamedArgs{
		"user_id": in.LoggedInUserID(),
		"pending": types.ConnectionStatusPending,
		"limit":   pageArgs.Limit() + 1,
	}

	if pageArgs.After != nil {
		filters = append(filters, "(connections.created_at, connections.id) < (@after_value, @after_id)")
		args["after_value"] = pageArgs.After.Value
		args["after_id"] = pageArgs.After.ID
	}

	q := `
		SELECT ` + connectionColumnsStr + `
		FROM connections
	` + where(filters) + `
		ORDER BY connections.created_at DESC, connections.id DESC
		LIMIT @limit
	`

	rows, err := c.db.Query(ctx, q, args)
	if err != nil {
		return out, fmt.Errorf("sql select pending connections: %w", err)
	}

	out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Connection])
	if err != nil {
		return out, fmt.Errorf("sql collect pending connections: %w", err)
	}

	err = applyPageInfo(&out, pageArgs, func(c types.Connection) Cursor[time.Time] {
		return Cursor[time.Time]{ID: c.ID, Value: c.CreatedAt}
	})

	return out, err
}

// CreateMessage appends to the chat log. Chat gating and party
// membership are checked inside the same transaction so a racing
// decline cannot slip a message in.
func (c *Cockroach) CreateMessage(ctx context.Context, in types.SendMessage) (types.Message, error) {
	var out types.Message

	return out, c.db.RunTx(ctx, func(ctx context.Context) error {
		conn, err := c.Connection(ctx, in.ConnectionID)
		if err != nil {
			return err
		}

		if !conn.Party(in.LoggedInUserID()) {
			return errs.NotConnectionParty
		}

		if !conn.ChatEnabled {
			return errs.ChatNotEnabled
		}

		const q = `
			INSERT INTO messages (id, connection_id, user_id, content)
			VALUES (@message_id, @connection_id, @user_id, @content)
			RETURNING messages.*
		`

		rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
			"message_id":    id.Generate(),
			"connection_id": in.ConnectionID,
			"user_id":       in.LoggedInUserID(),
			"content":       in.Content,
		})
		if err != nil {
			return fmt.Errorf("sql insert message: %w", err)
		}

		out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.Message])
		if err != nil {
			return fmt.Errorf("sql collect inserted message: %w", err)
		}

		const touch = `
			UPDATE connections
			SET updated_at = now()
			WHERE id = @connection_id
		`

		if _, err := c.db.Exec(ctx, touch, pgx.StrictNamedArgs{
			"connection_id": in.ConnectionID,
		}); err != nil {
			return fmt.Errorf("sql touch connection: %w", err)
		}

		return nil
	})
}

func (c *Cockroach) Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	var out types.Page[types.Message]

	conn, err := c.Connection(ctx, in.ConnectionID)
	if err != nil {
		return out, err
	}

	if !conn.Party(in.LoggedInUserID()) {
		return out, errs.NotConnectionParty
	}

	pageArgs, err := ParsePageArgs[time.Time](in.PageArgs)
	if err != nil {
		return out, err
	}

	filters := []string{"messages.connection_id = @connection_id"}
	args := pgx.NamedArgs{
		"connection_id": in.ConnectionID,
		"limit":         pageArgs.Limit() + 1,
	}

	if pageArgs.After != nil {
		filters = append(filters, "(messages.created_at, messages.id) > (@after_value, @after_id)")
		args["after_value"] = pageArgs.After.Value
		args["after_id"] = pageArgs.After.ID
	}

	// Chronological: the message log reads oldest first.
	q := `
		SELECT messages.*
		FROM messages
	` + where(filters) + `
		ORDER BY messages.created_at ASC, messages.id ASC
		LIMIT @limit
	`

	rows, err := c.db.Query(ctx, q, args)
	if err != nil {
		return out, fmt.Errorf("sql select messages: %w", err)
	}

	out.Items, err = pgx.CollectRows(rows, pgx.RowToStructByNameLax[types.Message])
	if err != nil {
		return out, fmt.Errorf("sql collect messages: %w", err)
	}

	err = applyPageInfo(&out, pageArgs, func(m types.Message) Cursor[time.Time] {
		return Cursor[time.Time]{ID: m.ID, Value: m.CreatedAt}
	})

	return out, err
}
