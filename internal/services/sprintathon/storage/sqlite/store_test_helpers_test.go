package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
)

var testNow = time.Date(2026, 2, 21, 21, 0, 0, 0, time.UTC)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	storePath := filepath.Join(t.TempDir(), "sprintathon.db")
	store, err := Open(storePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	store.now = func() time.Time { return testNow }
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close store: %v", closeErr)
		}
	})
	return store
}

func seedServer(t *testing.T, store *Store, guildID string) domain.Server {
	t.Helper()
	server, err := store.FindOrCreateServer(context.Background(), "Guild "+guildID, guildID)
	if err != nil {
		t.Fatalf("seed server: %v", err)
	}
	return server
}

func seedMember(t *testing.T, store *Store, userID string) domain.Member {
	t.Helper()
	member, err := store.FindOrCreateMember(context.Background(), "user-"+userID, userID)
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return member
}

func seedSprint(t *testing.T, store *Store, server domain.Server, channelID string, sprintathonID int64) domain.Sprint {
	t.Helper()
	sprint, err := store.CreateSprint(context.Background(), domain.Sprint{
		ServerID:        server.ID,
		ChannelID:       channelID,
		DurationMinutes: 15,
		SprintathonID:   sprintathonID,
		Active:          true,
	})
	if err != nil {
		t.Fatalf("seed sprint: %v", err)
	}
	return sprint
}

func seedSprintathon(t *testing.T, store *Store, server domain.Server, channelID string) domain.Sprintathon {
	t.Helper()
	sprintathon, err := store.CreateSprintathon(context.Background(), domain.Sprintathon{
		ServerID:      server.ID,
		ChannelID:     channelID,
		DurationHours: 24,
		Active:        true,
	})
	if err != nil {
		t.Fatalf("seed sprintathon: %v", err)
	}
	return sprintathon
}
