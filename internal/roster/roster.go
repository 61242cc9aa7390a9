// Package roster answers "is this student authorized for this unit" from
// class membership, with a legacy year-based rule for units that predate
// class assignment.
package roster

import (
	"context"
	"database/sql"

	"github.com/exampulse/exampulse/internal/assessment"
)

// Roster is the class-membership collaborator consumed by the attempt engine.
type Roster interface {
	ClassIDs(ctx context.Context, studentID string) ([]string, error)
	AuthorizedForUnit(ctx context.Context, studentID, studentYear string, u assessment.Unit) (bool, error)
}

type SQLRoster struct {
	db *sql.DB
}

func NewSQLRoster(db *sql.DB) *SQLRoster { return &SQLRoster{db: db} }

func (r *SQLRoster) ClassIDs(ctx context.Context, studentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT class_id FROM class_students WHERE student_id=$1`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AuthorizedForUnit checks class intersection first. Units that carry no
// class assignment fall back to the legacy rule: assigned flag plus a year
// match against the student profile.
func (r *SQLRoster) AuthorizedForUnit(ctx context.Context, studentID, studentYear string, u assessment.Unit) (bool, error) {
	if !u.Assignable() {
		return false, nil
	}
	if len(u.ClassIDs) > 0 {
		classIDs, err := r.ClassIDs(ctx, studentID)
		if err != nil {
			return false, err
		}
		member := map[string]struct{}{}
		for _, id := range classIDs {
			member[id] = struct{}{}
		}
		for _, id := range u.ClassIDs {
			if _, ok := member[id]; ok {
				return true, nil
			}
		}
		return false, nil
	}
	return u.Assigned && u.Year != "" && u.Year == studentYear, nil
}

// StaticRoster is a fixed membership table for tests and offline seeds.
type StaticRoster struct {
	// Members maps class id to the student ids enrolled in it.
	Members map[string][]string
}

func (r *StaticRoster) ClassIDs(_ context.Context, studentID string) ([]string, error) {
	var ids []string
	for classID, students := range r.Members {
		for _, s := range students {
			if s == studentID {
				ids = append(ids, classID)
				break
			}
		}
	}
	return ids, nil
}

func (r *StaticRoster) AuthorizedForUnit(ctx context.Context, studentID, studentYear string, u assessment.Unit) (bool, error) {
	if !u.Assignable() {
		return false, nil
	}
	if len(u.ClassIDs) > 0 {
		classIDs, _ := r.ClassIDs(ctx, studentID)
		for _, mine := range classIDs {
			for _, want := range u.ClassIDs {
				if mine == want {
					return true, nil
				}
			}
		}
		return false, nil
	}
	return u.Assigned && u.Year != "" && u.Year == studentYear, nil
}
