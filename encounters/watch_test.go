package encounters

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsEncounterEdits(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "boss.yaml"), []byte("name: boss\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case c := <-w.Events:
		if c.Name != "boss" || c.Script {
			t.Fatalf("change = %+v", c)
		}
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("no change reported")
	}
}

func TestWatcherCloseClosesChannels(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-w.Events; ok {
		t.Fatalf("events channel still open")
	}
	// Closing twice is fine.
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestCleanDataPath(t *testing.T) {
	tests := map[string]string{
		"bone_crawler":                        "bone_crawler.yaml",
		"bone_crawler.yaml":                   "bone_crawler.yaml",
		"data/scripts/vortex.tengo":           "scripts/vortex.tengo",
		"encounters/data/trinity_seeker.yaml": "trinity_seeker.yaml",
	}
	for in, want := range tests {
		if got := cleanDataPath(in); got != want {
			t.Fatalf("cleanDataPath(%q) = %q, want %q", in, got, want)
		}
	}
}
