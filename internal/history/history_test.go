package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ShayCichocki/finagent/pkg/models"
)

// setupTestStore opens a migrated store in a temp directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func completedEnvelope(task string) *models.Envelope {
	return &models.Envelope{
		Status:            models.EnvelopeCompleted,
		Task:              task,
		Summary:           "profits rose",
		Analysis:          map[string]any{"total_profit": 1200.5},
		SuccessfulWorkers: []string{"fetcher", "analyzer"},
		FailedWorkers:     []string{"visualizer"},
		WorkerStatus: map[string]models.WorkerStatus{
			"fetcher":    models.WorkerStatusCompleted,
			"analyzer":   models.WorkerStatusCompleted,
			"visualizer": models.WorkerStatusError,
		},
		Metadata: &models.EnvelopeMetadata{Total: 3, Successful: 2, Failed: 1},
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	var version int
	if err := s.conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2", version)
	}
}

func TestRecordAndGetRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, "run-1", completedEnvelope("Analyze profit")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Task != "Analyze profit" || run.Status != models.EnvelopeCompleted || run.Summary != "profits rose" {
		t.Errorf("run = %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if !reflect.DeepEqual(run.WorkerIDs(), []string{"analyzer", "fetcher", "visualizer"}) {
		t.Errorf("WorkerIDs = %v", run.WorkerIDs())
	}
	if run.Workers["visualizer"] != models.WorkerStatusError {
		t.Errorf("Workers = %v", run.Workers)
	}

	env, err := run.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if env.Analysis["total_profit"] != 1200.5 {
		t.Errorf("decoded analysis = %v", env.Analysis)
	}
	if env.Metadata == nil || env.Metadata.Failed != 1 {
		t.Errorf("decoded metadata = %+v", env.Metadata)
	}
}

func TestRecordReplaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.Record(ctx, "run-1", completedEnvelope("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(ctx, "run-1", models.NewErrorEnvelope("first", "boom")); err != nil {
		t.Fatalf("second Record: %v", err)
	}

	run, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != models.EnvelopeError || run.Error != "boom" {
		t.Errorf("run = %+v", run)
	}
	if len(run.Workers) != 0 {
		t.Errorf("stale worker rows: %v", run.Workers)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetRun(context.Background(), "nope")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	envs := []struct {
		id  string
		env *models.Envelope
	}{
		{"run-1", completedEnvelope("one")},
		{"run-2", models.NewClarificationEnvelope("help me", []string{"Which data?"})},
		{"run-3", completedEnvelope("three")},
	}
	for _, e := range envs {
		if err := s.Record(ctx, e.id, e.env); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListRuns(ctx, 0, nil)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 || all[0].ID != "run-3" || all[2].ID != "run-1" {
		t.Errorf("ListRuns order = %v", runIDs(all))
	}

	limited, err := s.ListRuns(ctx, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit ignored: %v", runIDs(limited))
	}

	status := models.EnvelopeClarificationNeeded
	filtered, err := s.ListRuns(ctx, 10, &status)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(runIDs(filtered), []string{"run-2"}) {
		t.Errorf("filtered = %v", runIDs(filtered))
	}
}

func TestDeleteRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	if err := s.Record(ctx, "run-1", completedEnvelope("one")); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteRun(ctx, "run-1"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := s.GetRun(ctx, "run-1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("run still present: %v", err)
	}
}

func TestRecordNilEnvelope(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Record(context.Background(), "run-1", nil); err == nil {
		t.Error("expected error for nil envelope")
	}
}

func runIDs(runs []Run) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}
