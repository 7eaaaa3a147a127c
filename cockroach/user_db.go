package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"

	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/types"
)

func (c *Cockroach) EnsureUser(ctx context.Context, in types.EnsureUser) (types.User, error) {
	var out types.User

	const q = `
		INSERT INTO users (id)
		VALUES (@user_id)
		ON CONFLICT (id) DO UPDATE
		SET updated_at = now()
		RETURNING users.*
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": in.UserID,
	})
	if err != nil {
		return out, fmt.Errorf("sql upsert user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if err != nil {
		return out, fmt.Errorf("sql collect upserted user: %w", err)
	}

	return out, nil
}

func (c *Cockroach) User(ctx context.Context, userID string) (types.User, error) {
	var out types.User

	const q = `
		SELECT users.*
		FROM users
		WHERE users.id = @user_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if db.IsNotFoundError(err) {
		return out, errs.UserNotFound
	}

	if err != nil {
		return out, fmt.Errorf("sql collect selected user: %w", err)
	}

	return out, nil
}
