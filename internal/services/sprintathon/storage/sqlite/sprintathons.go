package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/storage"
)

const sprintathonColumns = "id, start_at, duration_hours, server_id, active, channel_id"

func (s *Store) normalizeSprintathon(sprintathon domain.Sprintathon) (domain.Sprintathon, error) {
	sprintathon.ChannelID = strings.TrimSpace(sprintathon.ChannelID)
	if sprintathon.ServerID <= 0 {
		return domain.Sprintathon{}, fmt.Errorf("server id is required")
	}
	if sprintathon.ChannelID == "" {
		return domain.Sprintathon{}, fmt.Errorf("channel id is required")
	}
	if sprintathon.DurationHours <= 0 {
		return domain.Sprintathon{}, fmt.Errorf("duration must be positive")
	}
	if sprintathon.Start.IsZero() {
		sprintathon.Start = s.now()
	}
	sprintathon.Start = sprintathon.Start.UTC()
	return sprintathon, nil
}

// CreateSprintathon inserts a sprintathon, rejecting a second active one in scope.
func (s *Store) CreateSprintathon(ctx context.Context, sprintathon domain.Sprintathon) (domain.Sprintathon, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Sprintathon{}, err
	}
	sprintathon, err := s.normalizeSprintathon(sprintathon)
	if err != nil {
		return domain.Sprintathon{}, err
	}

	err = s.withTx(ctx, "create sprintathon", func(tx *sql.Tx) error {
		if sprintathon.Active {
			if err := ensureScopeFree(ctx, tx, "sprintathons", sprintathon.Scope(), 0); err != nil {
				return err
			}
		}
		result, err := tx.ExecContext(ctx, `
INSERT INTO sprintathons (start_at, duration_hours, server_id, active, channel_id)
VALUES (?, ?, ?, ?, ?)
`, toMillis(sprintathon.Start), sprintathon.DurationHours, sprintathon.ServerID, boolToInt(sprintathon.Active), sprintathon.ChannelID)
		if err != nil {
			return fmt.Errorf("insert sprintathon: %w", err)
		}
		sprintathon.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sprintathon id: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Sprintathon{}, err
	}
	return sprintathon, nil
}

// UpdateSprintathon overwrites a sprintathon row.
func (s *Store) UpdateSprintathon(ctx context.Context, sprintathon domain.Sprintathon) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	sprintathon, err := s.normalizeSprintathon(sprintathon)
	if err != nil {
		return err
	}
	return s.withTx(ctx, "update sprintathon", func(tx *sql.Tx) error {
		if sprintathon.Active {
			if err := ensureScopeFree(ctx, tx, "sprintathons", sprintathon.Scope(), sprintathon.ID); err != nil {
				return err
			}
		}
		result, err := tx.ExecContext(ctx, `
UPDATE sprintathons
SET start_at = ?, duration_hours = ?, server_id = ?, active = ?, channel_id = ?
WHERE id = ?
`, toMillis(sprintathon.Start), sprintathon.DurationHours, sprintathon.ServerID, boolToInt(sprintathon.Active), sprintathon.ChannelID, sprintathon.ID)
		if err != nil {
			return fmt.Errorf("update sprintathon: %w", err)
		}
		return requireAffected(result, "update sprintathon")
	})
}

// DeleteSprintathon removes a sprintathon. Sprints that referenced it keep
// running without a parent.
func (s *Store) DeleteSprintathon(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return deleteByID(ctx, s.sqlDB, "sprintathons", id)
}

// GetSprintathon loads a sprintathon by id.
func (s *Store) GetSprintathon(ctx context.Context, id int64) (domain.Sprintathon, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Sprintathon{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+sprintathonColumns+" FROM sprintathons WHERE id = ?", id)
	return scanSprintathonRow(row.Scan)
}

// GetActiveSprintathon loads the active sprintathon for a scope.
func (s *Store) GetActiveSprintathon(ctx context.Context, scope domain.Scope) (domain.Sprintathon, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Sprintathon{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+sprintathonColumns+`
FROM sprintathons
WHERE server_id = ? AND channel_id = ? AND active = 1
ORDER BY start_at DESC, id DESC
LIMIT 1
`, scope.ServerID, scope.ChannelID)
	return scanSprintathonRow(row.Scan)
}

// GetLatestSprintathon loads the most recently started sprintathon in scope.
func (s *Store) GetLatestSprintathon(ctx context.Context, scope domain.Scope) (domain.Sprintathon, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Sprintathon{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+sprintathonColumns+`
FROM sprintathons
WHERE server_id = ? AND channel_id = ?
ORDER BY start_at DESC, id DESC
LIMIT 1
`, scope.ServerID, scope.ChannelID)
	return scanSprintathonRow(row.Scan)
}

// ListActiveSprintathons returns every active sprintathon across all scopes.
func (s *Store) ListActiveSprintathons(ctx context.Context) ([]domain.Sprintathon, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+sprintathonColumns+" FROM sprintathons WHERE active = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list active sprintathons: %w", err)
	}
	defer rows.Close()

	sprintathons := make([]domain.Sprintathon, 0)
	for rows.Next() {
		sprintathon, err := scanSprintathon(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan sprintathon: %w", err)
		}
		sprintathons = append(sprintathons, sprintathon)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sprintathons: %w", err)
	}
	return sprintathons, nil
}

// DeactivateSprintathon clears the active flag and reports whether it was set.
func (s *Store) DeactivateSprintathon(ctx context.Context, id int64) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	return deactivate(ctx, s.sqlDB, "sprintathons", id)
}

// ListSprintathonMembers returns members with submissions attributed to the
// sprintathon, ordered by their first attributed submission.
func (s *Store) ListSprintathonMembers(ctx context.Context, sprintathonID int64) ([]domain.Member, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return listMembers(ctx, s.sqlDB, "list sprintathon members", `
SELECT `+memberColumns+`
FROM sprintathon_submissions ss
JOIN submissions sub ON sub.id = ss.submission_id
JOIN members m ON m.id = sub.member_id
WHERE ss.sprintathon_id = ?
GROUP BY m.id
ORDER BY MIN(sub.id)
`, sprintathonID)
}

// SumSprintathonWordCount totals a member's attributed word counts of the
// given types. No types means every type.
func (s *Store) SumSprintathonWordCount(ctx context.Context, sprintathonID, memberID int64, types ...domain.SubmissionType) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	query := `
SELECT COALESCE(SUM(sub.word_count), 0)
FROM sprintathon_submissions ss
JOIN submissions sub ON sub.id = ss.submission_id
WHERE ss.sprintathon_id = ? AND sub.member_id = ?`
	args := []any{sprintathonID, memberID}
	if len(types) > 0 {
		placeholders := make([]string, len(types))
		for i, typ := range types {
			placeholders[i] = "?"
			args = append(args, string(typ))
		}
		query += " AND sub.type IN (" + strings.Join(placeholders, ", ") + ")"
	}

	var total int
	if err := s.sqlDB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum sprintathon word count: %w", err)
	}
	return total, nil
}

func scanSprintathonRow(scan scanner) (domain.Sprintathon, error) {
	sprintathon, err := scanSprintathon(scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Sprintathon{}, storage.ErrNotFound
		}
		return domain.Sprintathon{}, fmt.Errorf("get sprintathon: %w", err)
	}
	return sprintathon, nil
}

func scanSprintathon(scan scanner) (domain.Sprintathon, error) {
	var (
		sprintathon domain.Sprintathon
		startAt     int64
		active      int
	)
	if err := scan(&sprintathon.ID, &startAt, &sprintathon.DurationHours, &sprintathon.ServerID, &active, &sprintathon.ChannelID); err != nil {
		return domain.Sprintathon{}, err
	}
	sprintathon.Start = fromMillis(startAt)
	sprintathon.Active = active == 1
	return sprintathon, nil
}
