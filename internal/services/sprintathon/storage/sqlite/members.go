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

const memberColumns = "m.id, m.name, m.external_user_id"

func normalizeMember(member domain.Member) (domain.Member, error) {
	member.DisplayName = strings.TrimSpace(member.DisplayName)
	member.ExternalUserID = strings.TrimSpace(member.ExternalUserID)
	if member.ExternalUserID == "" {
		return domain.Member{}, fmt.Errorf("external user id is required")
	}
	return member, nil
}

// CreateMember inserts a member and returns it with its assigned id.
func (s *Store) CreateMember(ctx context.Context, member domain.Member) (domain.Member, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Member{}, err
	}
	member, err := normalizeMember(member)
	if err != nil {
		return domain.Member{}, err
	}
	return insertMember(ctx, s.sqlDB, member)
}

func insertMember(ctx context.Context, execer sqlExecer, member domain.Member) (domain.Member, error) {
	result, err := execer.ExecContext(ctx,
		"INSERT INTO members (name, external_user_id) VALUES (?, ?)",
		member.DisplayName, member.ExternalUserID,
	)
	if err != nil {
		return domain.Member{}, fmt.Errorf("insert member: %w", err)
	}
	member.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Member{}, fmt.Errorf("member id: %w", err)
	}
	return member, nil
}

// UpdateMember overwrites a member's display name and external id.
func (s *Store) UpdateMember(ctx context.Context, member domain.Member) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	member, err := normalizeMember(member)
	if err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		"UPDATE members SET name = ?, external_user_id = ? WHERE id = ?",
		member.DisplayName, member.ExternalUserID, member.ID,
	)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return requireAffected(result, "update member")
}

// DeleteMember removes a member and, by cascade, their submissions.
func (s *Store) DeleteMember(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return deleteByID(ctx, s.sqlDB, "members", id)
}

// GetMember loads a member by id.
func (s *Store) GetMember(ctx context.Context, id int64) (domain.Member, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Member{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM members m WHERE m.id = ?", id)
	return scanMemberRow(row.Scan)
}

// GetMemberByExternalUserID loads a member by chat platform user id.
func (s *Store) GetMemberByExternalUserID(ctx context.Context, externalUserID string) (domain.Member, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Member{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members m WHERE m.external_user_id = ?",
		strings.TrimSpace(externalUserID),
	)
	return scanMemberRow(row.Scan)
}

// FindOrCreateMember returns the member for externalUserID, creating it on
// first sight and refreshing the display name when it changed.
func (s *Store) FindOrCreateMember(ctx context.Context, displayName, externalUserID string) (domain.Member, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Member{}, err
	}
	member, err := normalizeMember(domain.Member{DisplayName: displayName, ExternalUserID: externalUserID})
	if err != nil {
		return domain.Member{}, err
	}

	var found domain.Member
	err = s.withTx(ctx, "find or create member", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM members m WHERE m.external_user_id = ?", member.ExternalUserID)
		existing, err := scanMemberRow(row.Scan)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			found, err = insertMember(ctx, tx, member)
			return err
		case err != nil:
			return err
		}
		if existing.DisplayName != member.DisplayName && member.DisplayName != "" {
			if _, err := tx.ExecContext(ctx, "UPDATE members SET name = ? WHERE id = ?", member.DisplayName, existing.ID); err != nil {
				return fmt.Errorf("refresh member name: %w", err)
			}
			existing.DisplayName = member.DisplayName
		}
		found = existing
		return nil
	})
	if err != nil {
		return domain.Member{}, err
	}
	return found, nil
}

func scanMemberRow(scan scanner) (domain.Member, error) {
	member, err := scanMember(scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Member{}, storage.ErrNotFound
		}
		return domain.Member{}, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

func scanMember(scan scanner) (domain.Member, error) {
	var member domain.Member
	if err := scan(&member.ID, &member.DisplayName, &member.ExternalUserID); err != nil {
		return domain.Member{}, err
	}
	return member, nil
}

func listMembers(ctx context.Context, querier sqlQuerier, label, query string, args ...any) ([]domain.Member, error) {
	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	defer rows.Close()

	members := make([]domain.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", label, err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", label, err)
	}
	return members, nil
}
