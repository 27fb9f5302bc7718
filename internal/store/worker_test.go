package store

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestWorker(t *testing.T) *Worker {
	t.Helper()

	w, err := NewWorker("test-ws", t.TempDir(), RuntimeConfig{})
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	t.Cleanup(w.Stop)
	return w
}

func TestSessionIndexRoundTrip(t *testing.T) {
	w := newTestWorker(t)

	meta := &SessionMeta{ID: "sess-1", Title: "Chapter brainstorm", StoryID: "story-1", Status: "active"}
	if err := w.SaveSession(meta); err != nil {
		t.Fatal(err)
	}

	got, err := w.GetSession("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("session not found after save")
	}
	if got.Title != "Chapter brainstorm" {
		t.Errorf("title = %q", got.Title)
	}

	missing, err := w.GetSession("nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Error("expected nil for unknown session")
	}

	metas, err := w.ListSessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Fatalf("ListSessions returned %d entries", len(metas))
	}

	// Index survives on disk.
	if _, err := os.Stat(filepath.Join(w.basePath, "sessions", "index.json")); err != nil {
		t.Error(err)
	}
}

func TestTranscriptAppendAndRead(t *testing.T) {
	w := newTestWorker(t)

	lines := []string{`{"role":"user"}`, `{"role":"assistant"}`, `{"role":"user"}`}
	for _, l := range lines {
		if err := w.WriteTranscript("sess-1", []byte(l)); err != nil {
			t.Fatal(err)
		}
	}

	got, err := w.ReadTranscript("sess-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d lines, want 3", len(got))
	}
	if got[1] != lines[1] {
		t.Errorf("line 1 = %q", got[1])
	}

	// Limit keeps the newest entries.
	tail, err := w.ReadTranscript("sess-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(tail) != 2 || tail[0] != lines[1] {
		t.Errorf("tail = %v", tail)
	}

	// Reading a session with no transcript is not an error.
	empty, err := w.ReadTranscript("never-written", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty transcript, got %v", empty)
	}
}

func TestResetSession(t *testing.T) {
	w := newTestWorker(t)

	if err := w.SaveSession(&SessionMeta{ID: "sess-1"}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteTranscript("sess-1", []byte(`{"role":"user"}`)); err != nil {
		t.Fatal(err)
	}

	if err := w.ResetSession("sess-1"); err != nil {
		t.Fatal(err)
	}

	got, err := w.GetSession("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("session still in index after reset")
	}
	if _, err := os.Stat(w.transcriptPath("sess-1")); !os.IsNotExist(err) {
		t.Error("transcript still on disk after reset")
	}

	// Resetting an unknown session is a no-op.
	if err := w.ResetSession("never-existed"); err != nil {
		t.Error(err)
	}
}

func TestTranscriptRotation(t *testing.T) {
	root := t.TempDir()
	w, err := NewWorker("test-ws", root, RuntimeConfig{TranscriptRotateMaxBytes: 1024})
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	defer w.Stop()

	sessionID := "rotate-sess"
	path := w.transcriptPath(sessionID)

	line := make([]byte, 512)
	for i := range line {
		line[i] = 'x'
	}
	// Third write sees the file at the limit and rotates first.
	for i := 0; i < 3; i++ {
		if err := w.WriteTranscript(sessionID, line); err != nil {
			t.Fatal(err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() > 1024 {
		t.Errorf("file should have been rotated, size: %d", info.Size())
	}

	matches, err := filepath.Glob(path + ".*.bak")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Error("backup file not found")
	}
}

func TestIndexReloadAcrossWorkers(t *testing.T) {
	root := t.TempDir()

	w, err := NewWorker("test-ws", root, RuntimeConfig{})
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	if err := w.SaveSession(&SessionMeta{ID: "sess-1", Title: "kept"}); err != nil {
		t.Fatal(err)
	}
	w.Stop()

	w2, err := NewWorker("test-ws", root, RuntimeConfig{})
	if err != nil {
		t.Fatal(err)
	}
	w2.Start()
	defer w2.Stop()

	got, err := w2.GetSession("sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Title != "kept" {
		t.Errorf("index not reloaded: %+v", got)
	}
}

func TestVectorUpsertAndSearch(t *testing.T) {
	w := newTestWorker(t)

	if err := w.UpsertVector("sourcebook_story-1", "e1", []float32{1, 0, 0},
		map[string]string{"name": "Mira"}, "Mira is the narrator."); err != nil {
		t.Fatal(err)
	}
	if err := w.UpsertVector("sourcebook_story-1", "e2", []float32{0, 1, 0},
		map[string]string{"name": "Harbor"}, "The harbor district."); err != nil {
		t.Fatal(err)
	}

	results, err := w.SearchVectors("sourcebook_story-1", []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].ID != "e1" {
		t.Errorf("top result = %s", results[0].ID)
	}

	// Limit above collection size is clamped, not an error.
	all, err := w.SearchVectors("sourcebook_story-1", []float32{1, 0, 0}, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("got %d results", len(all))
	}

	// Unknown collection yields no results.
	none, err := w.SearchVectors("sourcebook_other", []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("expected no results, got %d", len(none))
	}
}
