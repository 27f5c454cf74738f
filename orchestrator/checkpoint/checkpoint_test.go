// ABOUTME: Tests for the sqlite-backed RunRecord store: save/load round-trip and phase-transition updates.
package checkpoint

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	rec := Record{
		RunID:           "run-1",
		Name:            "generated_app",
		Goal:            "build a todo app",
		StartedAt:       time.Now().Truncate(time.Second),
		Phase:           "design",
		PhasesCompleted: []string{"requirements"},
		Outcome:         "",
	}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, ok, err := s.Load("run-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok {
		t.Fatal("Load() did not find the saved record")
	}
	if loaded.Phase != "design" || len(loaded.PhasesCompleted) != 1 || loaded.PhasesCompleted[0] != "requirements" {
		t.Errorf("loaded = %+v, want phase design with one completed phase", loaded)
	}
	if !loaded.StartedAt.Equal(rec.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", loaded.StartedAt, rec.StartedAt)
	}
}

func TestSaveUpdatesExistingRunOnPhaseTransition(t *testing.T) {
	s := openTestStore(t)
	base := Record{RunID: "run-2", Name: "app", Goal: "g", StartedAt: time.Now().Truncate(time.Second), Phase: "requirements"}
	if err := s.Save(base); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	base.Phase = "code"
	base.PhasesCompleted = []string{"requirements", "design"}
	if err := s.Save(base); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, ok, err := s.Load("run-2")
	if err != nil || !ok {
		t.Fatalf("Load() error = %v, ok = %v", err, ok)
	}
	if loaded.Phase != "code" || len(loaded.PhasesCompleted) != 2 {
		t.Errorf("loaded = %+v, want phase code with two completed phases", loaded)
	}
}

func TestLoadMissingRunReturnsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Load("ghost")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() should report not-found for an unknown run ID")
	}
}

func TestSaveFinalOutcomeOnCompletion(t *testing.T) {
	s := openTestStore(t)
	rec := Record{RunID: "run-3", Name: "app", Goal: "g", StartedAt: time.Now().Truncate(time.Second), Phase: "testing"}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec.Outcome = "success"
	rec.PhasesCompleted = []string{"requirements", "design", "code", "docker", "testing"}
	if err := s.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, _, err := s.Load("run-3")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Outcome != "success" || len(loaded.PhasesCompleted) != 5 {
		t.Errorf("loaded = %+v, want outcome success with 5 completed phases", loaded)
	}
}
