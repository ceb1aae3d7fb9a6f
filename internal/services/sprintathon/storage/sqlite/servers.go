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

const serverColumns = "id, name, external_guild_id"

func normalizeServer(server domain.Server) (domain.Server, error) {
	server.Name = strings.TrimSpace(server.Name)
	server.ExternalGuildID = strings.TrimSpace(server.ExternalGuildID)
	if server.ExternalGuildID == "" {
		return domain.Server{}, fmt.Errorf("external guild id is required")
	}
	return server, nil
}

// CreateServer inserts a server and returns it with its assigned id.
func (s *Store) CreateServer(ctx context.Context, server domain.Server) (domain.Server, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Server{}, err
	}
	server, err := normalizeServer(server)
	if err != nil {
		return domain.Server{}, err
	}
	return insertServer(ctx, s.sqlDB, server)
}

func insertServer(ctx context.Context, execer sqlExecer, server domain.Server) (domain.Server, error) {
	result, err := execer.ExecContext(ctx,
		"INSERT INTO servers (name, external_guild_id) VALUES (?, ?)",
		server.Name, server.ExternalGuildID,
	)
	if err != nil {
		return domain.Server{}, fmt.Errorf("insert server: %w", err)
	}
	server.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Server{}, fmt.Errorf("server id: %w", err)
	}
	return server, nil
}

// UpdateServer overwrites a server's name and external id.
func (s *Store) UpdateServer(ctx context.Context, server domain.Server) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	server, err := normalizeServer(server)
	if err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		"UPDATE servers SET name = ?, external_guild_id = ? WHERE id = ?",
		server.Name, server.ExternalGuildID, server.ID,
	)
	if err != nil {
		return fmt.Errorf("update server: %w", err)
	}
	return requireAffected(result, "update server")
}

// DeleteServer removes a server and every session scoped to it.
func (s *Store) DeleteServer(ctx context.Context, id int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return deleteByID(ctx, s.sqlDB, "servers", id)
}

// GetServer loads a server by id.
func (s *Store) GetServer(ctx context.Context, id int64) (domain.Server, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Server{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, "SELECT "+serverColumns+" FROM servers WHERE id = ?", id)
	return scanServerRow(row.Scan)
}

// FindOrCreateServer returns the server for externalGuildID, creating it on
// first sight and refreshing the stored name after a rename.
func (s *Store) FindOrCreateServer(ctx context.Context, name, externalGuildID string) (domain.Server, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Server{}, err
	}
	server, err := normalizeServer(domain.Server{Name: name, ExternalGuildID: externalGuildID})
	if err != nil {
		return domain.Server{}, err
	}

	var found domain.Server
	err = s.withTx(ctx, "find or create server", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, "SELECT "+serverColumns+" FROM servers WHERE external_guild_id = ?", server.ExternalGuildID)
		existing, err := scanServerRow(row.Scan)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			found, err = insertServer(ctx, tx, server)
			return err
		case err != nil:
			return err
		}
		if existing.Name != server.Name && server.Name != "" {
			if _, err := tx.ExecContext(ctx, "UPDATE servers SET name = ? WHERE id = ?", server.Name, existing.ID); err != nil {
				return fmt.Errorf("refresh server name: %w", err)
			}
			existing.Name = server.Name
		}
		found = existing
		return nil
	})
	if err != nil {
		return domain.Server{}, err
	}
	return found, nil
}

// AddServerMember records a member on a server roster; repeats are no-ops.
func (s *Store) AddServerMember(ctx context.Context, serverID, memberID int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		"INSERT OR IGNORE INTO server_members (server_id, member_id) VALUES (?, ?)",
		serverID, memberID,
	); err != nil {
		return fmt.Errorf("add server member: %w", err)
	}
	return nil
}

// ListServerMembers returns a server roster in join order.
func (s *Store) ListServerMembers(ctx context.Context, serverID int64) ([]domain.Member, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return listMembers(ctx, s.sqlDB, "list server members", `
SELECT `+memberColumns+`
FROM server_members sm
JOIN members m ON m.id = sm.member_id
WHERE sm.server_id = ?
ORDER BY sm.rowid
`, serverID)
}

func scanServerRow(scan scanner) (domain.Server, error) {
	var server domain.Server
	if err := scan(&server.ID, &server.Name, &server.ExternalGuildID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Server{}, storage.ErrNotFound
		}
		return domain.Server{}, fmt.Errorf("get server: %w", err)
	}
	return server, nil
}
