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

const sprintColumns = "id, start_at, duration_minutes, server_id, sprintathon_id, active, channel_id"

func (s *Store) normalizeSprint(sprint domain.Sprint) (domain.Sprint, error) {
	sprint.ChannelID = strings.TrimSpace(sprint.ChannelID)
	if sprint.ServerID <= 0 {
		return domain.Sprint{}, fmt.Errorf("server id is required")
	}
	if sprint.ChannelID == "" {
		return domain.Sprint{}, fmt.Errorf("channel id is required")
	}
	if sprint.DurationMinutes <= 0 {
		return domain.Sprint{}, fmt.Errorf("duration must be positive")
	}
	if sprint.Start.IsZero() {
		sprint.Start = s.now()
	}
	sprint.Start = sprint.Start.UTC()
	return sprint, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

// CreateSprint inserts a sprint, rejecting a second active sprint in scope.
func (s *Store) CreateSprint(ctx context.Context, sprint domain.Sprint) (domain.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Sprint{}, err
	}
	sprint, err := s.normalizeSprint(sprint)
	if err != nil {
		return domain.Sprint{}, err
	}

	err = s.withTx(ctx, "create sprint", func(tx *sql.Tx) error {
		if sprint.Active {
			if err := ensureScopeFree(ctx, tx, "sprints", sprint.Scope(), 0); err != nil {
				return err
			}
		}
		result, err := tx.ExecContext(ctx, `
INSERT INTO sprints (start_at, duration_minutes, server_id, sprintathon_id, active, channel_id)
VALUES (?, ?, ?, ?, ?, ?)
`, toMillis(sprint.Start), sprint.DurationMinutes, sprint.ServerID, nullID(sprint.SprintathonID), boolToInt(sprint.Active), sprint.ChannelID)
		if err != nil {
			return fmt.Errorf("insert sprint: %w", err)
		}
		sprint.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("sprint id: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Sprint{}, err
	}
	return sprint, nil
}

// UpdateSprint overwrites a sprint row. Reactivating is subject to the same
// one-active-per-scope check as creation.
func (s *Store) UpdateSprint(ctx context.Context, sprint domain.Sprint) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	sprint, err := s.normalizeSprint(sprint)
	if err != nil {
		return err
	}
	return s.withTx(ctx, "update sprint", func(tx *sql.Tx) error {
		if sprint.Active {
			if err := ensureScopeFree(ctx, tx, "sprints", sprint.Scope(), sprint.ID); err != nil {
				return err
			}
		}
		result, err := tx.ExecContext(ctx, `
UPDATE sprints
SET start_at = ?, duration_minutes = ?, server_id = ?, sprintathon_id = ?, active = ?, channel_id = ?
WHERE id = ?
`, toMillis(sprint.Start), sprint.DurationMinutes, sprint.ServerID, nullID(sprint.SprintathonID), boolToInt(sprint.Active), sprint.ChannelID, sprint.ID)
		if err != nil {
			return fmt.Errorf("update sprint: %w", err)
		}
		return requireAffected(result, "update sprint")
	})
}

// DeleteSprint removes a sprint with its roster and attribution links.
func (s *Store) DeleteSprint(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return deleteByID(ctx, s.sqlDB, "sprints", id)
}

// GetSprint loads a sprint by id.
func (s *Store) GetSprint(ctx context.Context, id int64) (domain.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Sprint{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+sprintColumns+" FROM sprints WHERE id = ?", id)
	return scanSprintRow(row.Scan)
}

// GetActiveSprint loads the active sprint for a scope.
func (s *Store) GetActiveSprint(ctx context.Context, scope domain.Scope) (domain.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Sprint{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+sprintColumns+`
FROM sprints
WHERE server_id = ? AND channel_id = ? AND active = 1
ORDER BY start_at DESC, id DESC
LIMIT 1
`, scope.ServerID, scope.ChannelID)
	return scanSprintRow(row.Scan)
}

// ListActiveSprints returns every active sprint across all scopes.
func (s *Store) ListActiveSprints(ctx context.Context) ([]domain.Sprint, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, "SELECT "+sprintColumns+" FROM sprints WHERE active = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list active sprints: %w", err)
	}
	defer rows.Close()

	sprints := make([]domain.Sprint, 0)
	for rows.Next() {
		sprint, err := scanSprint(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan sprint: %w", err)
		}
		sprints = append(sprints, sprint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sprints: %w", err)
	}
	return sprints, nil
}

// DeactivateSprint clears the active flag and reports whether it was set.
func (s *Store) DeactivateSprint(ctx context.Context, id int64) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	return deactivate(ctx, s.sqlDB, "sprints", id)
}

// AddSprintMember records a member on a sprint roster; repeats are no-ops.
func (s *Store) AddSprintMember(ctx context.Context, sprintID, memberID int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"INSERT OR IGNORE INTO sprint_members (sprint_id, member_id) VALUES (?, ?)",
		sprintID, memberID,
	); err != nil {
		return fmt.Errorf("add sprint member: %w", err)
	}
	return nil
}

// ListSprintMembers returns a sprint roster in join order.
func (s *Store) ListSprintMembers(ctx context.Context, sprintID int64) ([]domain.Member, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return listMembers(ctx, s.sqlDB, "list sprint members", `
SELECT `+memberColumns+`
FROM sprint_members sm
JOIN members m ON m.id = sm.member_id
WHERE sm.sprint_id = ?
ORDER BY sm.rowid
`, sprintID)
}

// ensureScopeFree fails with ErrActiveSessionExists when table already holds
// an active row for scope other than exceptID.
func ensureScopeFree(ctx context.Context, tx *sql.Tx, table string, scope domain.Scope, exceptID int64) error {
	var found int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM "+table+" WHERE server_id = ? AND channel_id = ? AND active = 1 AND id != ? LIMIT 1",
		scope.ServerID, scope.ChannelID, exceptID,
	).Scan(&found)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("check active %s: %w", table, err)
	default:
		return storage.ErrActiveSessionExists
	}
}

func deactivate(ctx context.Context, execer sqlExecer, table string, id int64) (bool, error) {
	result, err := execer.ExecContext(ctx, "UPDATE "+table+" SET active = 0 WHERE id = ? AND active = 1", id)
	if err != nil {
		return false, fmt.Errorf("deactivate %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate %s rows affected: %w", table, err)
	}
	return affected > 0, nil
}

func scanSprintRow(scan scanner) (domain.Sprint, error) {
	sprint, err := scanSprint(scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Sprint{}, storage.ErrNotFound
		}
		return domain.Sprint{}, fmt.Errorf("get sprint: %w", err)
	}
	return sprint, nil
}

func scanSprint(scan scanner) (domain.Sprint, error) {
	var (
		sprint        domain.Sprint
		startAt       int64
		sprintathonID sql.NullInt64
		active        int
	)
	if err := scan(&sprint.ID, &startAt, &sprint.DurationMinutes, &sprint.ServerID, &sprintathonID, &active, &sprint.ChannelID); err != nil {
		return domain.Sprint{}, err
	}
	sprint.Start = fromMillis(startAt)
	sprint.SprintathonID = sprintathonID.Int64
	sprint.Active = active == 1
	return sprint, nil
}
