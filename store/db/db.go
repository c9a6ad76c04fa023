// Package db selects the storage driver based on the instance profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/coachdesk/coachdesk/internal/profile"
	"github.com/coachdesk/coachdesk/store"
	"github.com/coachdesk/coachdesk/store/db/memory"
	"github.com/coachdesk/coachdesk/store/db/postgres"
)

// NewDBDriver creates a new database driver for the configured backend.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	switch profile.Driver {
	case "postgres":
		return postgres.NewDB(profile)
	case "memory":
		return memory.NewDB(), nil
	default:
		return nil, errors.Errorf("unknown db driver %q", profile.Driver)
	}
}
