package database

import (
	"context"
	"fmt"

	"github.com/tourdesk/booking-backend/internal/models"
)

// referenceTable describes a name-only lookup table and the rows that point at it
type referenceTable struct {
	table       string
	usageQuery  string
	usageTarget string
}

var referenceTables = map[models.ReferenceKind]referenceTable{
	models.ReferenceShip: {
		table:       "ships",
		usageQuery:  `SELECT COUNT(*) FROM tours WHERE ship_id = $1`,
		usageTarget: "tours",
	},
	models.ReferenceLocation: {
		table:       "locations",
		usageQuery:  `SELECT COUNT(*) FROM tours WHERE location_id = $1`,
		usageTarget: "tours",
	},
	models.ReferenceAgent: {
		table: "agents",
		usageQuery: `SELECT (SELECT COUNT(*) FROM bookings WHERE agent_id = $1)
			+ (SELECT COUNT(*) FROM booking_tours WHERE booking_agent_id = $1)`,
		usageTarget: "bookings",
	},
	models.ReferenceBookingAgent: {
		table:       "booking_agents",
		usageQuery:  `SELECT COUNT(*) FROM booking_tours WHERE booking_agent_id = $1`,
		usageTarget: "bookings",
	},
}

// ReferenceRepository handles ships, locations, agents and booking agents
type ReferenceRepository struct {
	db   DB
	exec *Executor
}

// NewReferenceRepository creates a new ReferenceRepository
func NewReferenceRepository(db DB, exec *Executor) *ReferenceRepository {
	return &ReferenceRepository{db: db, exec: exec}
}

func (r *ReferenceRepository) lookup(kind models.ReferenceKind) (referenceTable, error) {
	t, ok := referenceTables[kind]
	if !ok {
		return referenceTable{}, fmt.Errorf("unknown reference kind %q", kind)
	}
	return t, nil
}

// List returns every row of the kind ordered by name
func (r *ReferenceRepository) List(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error) {
	t, err := r.lookup(kind)
	if err != nil {
		return nil, err
	}
	items := []models.ReferenceItem{}
	err = r.exec.Run(ctx, r.exec.Defaults(), "reference.list", func(ctx context.Context) error {
		return r.db.SelectContext(ctx, &items,
			`SELECT id, name, created_at, updated_at FROM `+t.table+` ORDER BY name`)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.table, err)
	}
	return items, nil
}

// GetByID retrieves one row
func (r *ReferenceRepository) GetByID(ctx context.Context, kind models.ReferenceKind, id int64) (*models.ReferenceItem, error) {
	t, err := r.lookup(kind)
	if err != nil {
		return nil, err
	}
	var item models.ReferenceItem
	err = r.exec.Run(ctx, r.exec.Defaults(), "reference.get_by_id", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &item,
			`SELECT id, name, created_at, updated_at FROM `+t.table+` WHERE id = $1`, id)
	})
	if err != nil {
		return nil, entityNotFound(err, "failed to get "+string(kind))
	}
	return &item, nil
}

// Create inserts a row
func (r *ReferenceRepository) Create(ctx context.Context, kind models.ReferenceKind, name string) (*models.ReferenceItem, error) {
	t, err := r.lookup(kind)
	if err != nil {
		return nil, err
	}
	var item models.ReferenceItem
	err = r.exec.Run(ctx, r.exec.Defaults().NoRetry(), "reference.create", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &item, `
			INSERT INTO `+t.table+` (name, created_at, updated_at)
			VALUES ($1, NOW(), NOW())
			RETURNING id, name, created_at, updated_at`, name)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", kind, err)
	}
	return &item, nil
}

// Rename changes the name of a row
func (r *ReferenceRepository) Rename(ctx context.Context, kind models.ReferenceKind, id int64, name string) (*models.ReferenceItem, error) {
	t, err := r.lookup(kind)
	if err != nil {
		return nil, err
	}
	var item models.ReferenceItem
	err = r.exec.Run(ctx, r.exec.Defaults(), "reference.rename", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &item, `
			UPDATE `+t.table+` SET name = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, created_at, updated_at`, id, name)
	})
	if err != nil {
		return nil, entityNotFound(err, "failed to rename "+string(kind))
	}
	return &item, nil
}

// Delete removes a row unless bookings or tours still reference it.
// A blocked delete returns *models.ReferencedError and deletes nothing.
func (r *ReferenceRepository) Delete(ctx context.Context, kind models.ReferenceKind, id int64) error {
	t, err := r.lookup(kind)
	if err != nil {
		return err
	}

	var usages int
	err = r.exec.Run(ctx, r.exec.Defaults(), "reference.count_usages", func(ctx context.Context) error {
		return r.db.GetContext(ctx, &usages, t.usageQuery, id)
	})
	if err != nil {
		return fmt.Errorf("failed to check %s usage: %w", kind, err)
	}
	if usages > 0 {
		return &models.ReferencedError{Kind: string(kind), Usages: usages, UsedIn: t.usageTarget}
	}

	return r.exec.Run(ctx, r.exec.Defaults(), "reference.delete", func(ctx context.Context) error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM `+t.table+` WHERE id = $1`, id)
		if err != nil {
			if IsConstraintViolation(err) {
				return &models.ReferencedError{Kind: string(kind), Usages: 1, UsedIn: t.usageTarget}
			}
			return fmt.Errorf("failed to delete %s: %w", kind, err)
		}
		return expectAffected(result, models.ErrEntityNotFound)
	})
}
