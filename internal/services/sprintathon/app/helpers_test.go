package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sprintathon/sprintathon/internal/services/sprintathon/domain"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/render"
	"github.com/sprintathon/sprintathon/internal/services/sprintathon/storage"
	sprintsqlite "github.com/sprintathon/sprintathon/internal/services/sprintathon/storage/sqlite"
)

var baseTime = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	sleeps  []time.Duration
	onSleep func(n int, d time.Duration)
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
	n := len(c.sleeps)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(n, d)
	}
	return ctx.Err()
}

func (c *fakeClock) recordedSleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type sentMessage struct {
	ChannelID string
	Text      string
}

type recordingMessenger struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (m *recordingMessenger) SendMessage(_ context.Context, channelID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{ChannelID: channelID, Text: text})
	return nil
}

func (m *recordingMessenger) texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		out = append(out, msg.Text)
	}
	return out
}

// containing returns the messages that contain substr.
func (m *recordingMessenger) containing(substr string) []string {
	var out []string
	for _, text := range m.texts() {
		if strings.Contains(text, substr) {
			out = append(out, text)
		}
	}
	return out
}

// taskQueue captures spawned session tasks so tests run them on demand.
type taskQueue struct {
	tasks []func()
}

func (q *taskQueue) spawn(task func()) {
	q.tasks = append(q.tasks, task)
}

func (q *taskQueue) runAll(t *testing.T) {
	t.Helper()
	pending := q.tasks
	q.tasks = nil
	for _, task := range pending {
		task()
	}
}

type harness struct {
	engine    *Engine
	store     *sprintsqlite.Store
	dbPath    string
	clock     *fakeClock
	messenger *recordingMessenger
	tasks     *taskQueue
	scope     domain.Scope
}

func newHarness(t *testing.T, timing Timing) *harness {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sprintathon.db")
	store, err := sprintsqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close store: %v", closeErr)
		}
	})

	clock := &fakeClock{now: baseTime}
	messenger := &recordingMessenger{}
	engine, err := NewEngine(Deps{
		Store:     store,
		Messenger: messenger,
		Renderer:  render.New(nil, "!"),
		Clock:     clock,
		Timing:    timing,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	tasks := &taskQueue{}
	engine.spawn = tasks.spawn

	server, err := store.FindOrCreateServer(context.Background(), "Writers", "guild-1")
	if err != nil {
		t.Fatalf("seed server: %v", err)
	}
	return &harness{
		engine:    engine,
		store:     store,
		dbPath:    dbPath,
		clock:     clock,
		messenger: messenger,
		tasks:     tasks,
		scope:     domain.Scope{ServerID: server.ID, ChannelID: "chan-1"},
	}
}

func (h *harness) checkIn(t *testing.T, userID, raw string) domain.Submission {
	t.Helper()
	sub, err := h.engine.CheckIn(context.Background(), h.scope, Sender{ExternalUserID: userID, DisplayName: "name-" + userID}, raw)
	if err != nil {
		t.Fatalf("check in %s %q: %v", userID, raw, err)
	}
	return sub
}

func (h *harness) startSprint(t *testing.T, minutes int) domain.Sprint {
	t.Helper()
	sprint, err := h.engine.StartSprint(context.Background(), h.scope, minutes)
	if err != nil {
		t.Fatalf("start sprint: %v", err)
	}
	return sprint
}

func (h *harness) startSprintathon(t *testing.T, hours int) domain.Sprintathon {
	t.Helper()
	sprintathon, err := h.engine.StartSprintathon(context.Background(), h.scope, hours)
	if err != nil {
		t.Fatalf("start sprintathon: %v", err)
	}
	return sprintathon
}

func (h *harness) member(t *testing.T, userID string) domain.Member {
	t.Helper()
	member, err := h.store.GetMemberByExternalUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("get member %s: %v", userID, err)
	}
	return member
}

func (h *harness) submissions(t *testing.T, sprintID int64, userID string) []domain.Submission {
	t.Helper()
	subs, err := h.store.ListSprintSubmissionsForMember(context.Background(), sprintID, h.member(t, userID).ID)
	if err != nil {
		t.Fatalf("list submissions: %v", err)
	}
	return subs
}

func countType(subs []domain.Submission, typ domain.SubmissionType) int {
	n := 0
	for _, sub := range subs {
		if sub.Type == typ {
			n++
		}
	}
	return n
}

func equalDurations(a, b []time.Duration) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// withStore rebuilds the harness engine over store, keeping the clock,
// messenger and task queue.
func (h *harness) withStore(t *testing.T, store storage.Store) {
	t.Helper()
	engine, err := NewEngine(Deps{
		Store:     store,
		Messenger: h.messenger,
		Renderer:  render.New(nil, "!"),
		Clock:     h.clock,
		Timing:    h.engine.timing,
	})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.spawn = h.tasks.spawn
	h.engine = engine
}

// reopen opens a second handle on the harness database.
func (h *harness) reopen(t *testing.T) *sprintsqlite.Store {
	t.Helper()
	store, err := sprintsqlite.Open(h.dbPath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close reopened store: %v", closeErr)
		}
	})
	return store
}

// stopBeforeFinalize deactivates the sprint just before finalization
// commits, as a concurrent stop command would.
type stopBeforeFinalize struct {
	*sprintsqlite.Store
}

func (s stopBeforeFinalize) FinalizeSprint(ctx context.Context, outcome storage.SprintOutcome) (bool, error) {
	if _, err := s.Store.DeactivateSprint(ctx, outcome.SprintID); err != nil {
		return false, err
	}
	return s.Store.FinalizeSprint(ctx, outcome)
}

type failingFinalize struct {
	*sprintsqlite.Store
}

func (failingFinalize) FinalizeSprint(context.Context, storage.SprintOutcome) (bool, error) {
	return false, errors.New("disk I/O error")
}
