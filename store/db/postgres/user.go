package postgres

import (
	"context"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/store"
)

// CreateUser creates a user.
func (d *DB) CreateUser(ctx context.Context, user *store.User) (*store.User, error) {
	stmt := `
		INSERT INTO "user" (display_name, email, created_ts)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := d.db.QueryRowContext(ctx, stmt, user.DisplayName, user.Email, user.CreatedTs).Scan(&user.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create user")
	}
	return user, nil
}

// ListUsers lists users.
func (d *DB) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if len(find.IDs) > 0 {
		where, args = append(where, "id = ANY("+placeholder(len(args)+1)+")"), append(args, pq.Array(find.IDs))
	}

	query := `
		SELECT id, display_name, email, created_ts
		FROM "user"
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY id
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}
	defer rows.Close()

	list := []*store.User{}
	for rows.Next() {
		var user store.User
		if err := rows.Scan(&user.ID, &user.DisplayName, &user.Email, &user.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan user")
		}
		list = append(list, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
