package identity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/biointellect/caregate/pkg/roles"
)

// Directory looks up a single backing-table row for an authenticated
// principal.
type Directory interface {
	// FindProfile returns the row keyed by principal id in the role's
	// backing table. It returns ErrProfileMissing for zero rows and
	// ErrDuplicateProfile when more than one row matches; it never
	// picks arbitrarily.
	FindProfile(ctx context.Context, cfg roles.BackingConfig, principalID string) (roles.Row, error)
}

// PostgresDirectory resolves profiles from the role backing tables.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgresDirectory creates a directory over an open database handle.
func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// FindProfile implements Directory. The query joins the hospital
// display name and is limited to two rows so duplicates are detected
// without scanning the whole table.
func (d *PostgresDirectory) FindProfile(ctx context.Context, cfg roles.BackingConfig, principalID string) (roles.Row, error) {
	cols := make([]string, 0, len(cfg.Columns))
	for _, col := range cfg.Columns {
		cols = append(cols, "p."+col)
	}
	query := fmt.Sprintf(
		`SELECT %s, h.hospital_name_en AS hospital_name FROM %s p LEFT JOIN hospitals h ON h.id = p.hospital_id WHERE p.user_id = $1 LIMIT 2`,
		strings.Join(cols, ", "), cfg.Table,
	)

	rows, err := d.db.QueryContext(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("profile lookup in %s failed: %w", cfg.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("profile lookup in %s failed: %w", cfg.Table, err)
	}

	var found roles.Row
	count := 0
	for rows.Next() {
		count++
		if count > 1 {
			return nil, fmt.Errorf("principal %s in %s: %w", principalID, cfg.Table, ErrDuplicateProfile)
		}

		values := make([]interface{}, len(columns))
		for i := range values {
			values[i] = new(sql.NullString)
		}
		if err := rows.Scan(values...); err != nil {
			return nil, fmt.Errorf("profile scan in %s failed: %w", cfg.Table, err)
		}

		found = make(roles.Row, len(columns))
		for i, col := range columns {
			ns := values[i].(*sql.NullString)
			if ns.Valid {
				found[col] = ns.String
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("profile lookup in %s failed: %w", cfg.Table, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("principal %s in %s: %w", principalID, cfg.Table, ErrProfileMissing)
	}

	return found, nil
}
