package importer

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const validProgram = `{
	"name": "PPL",
	"days": [
		{"day_label": "Push", "exercises": [{"exercise": "Bench Press", "sets": 3, "reps": 8}]}
	]
}`

func TestImportDryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ppl.json", validProgram)
	writeFile(t, dir, "broken.json", `{not json`)
	writeFile(t, dir, "notes.txt", "ignored")

	imp := New(nil, nil, testLogger(), true)
	stats, err := imp.Import(context.Background(), dir, 1)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if stats.FilesProcessed != 1 {
		t.Errorf("files_processed = %d, want 1", stats.FilesProcessed)
	}
	if stats.FilesErrored != 1 {
		t.Errorf("files_errored = %d, want 1", stats.FilesErrored)
	}
	if stats.ProgramsCreated != 0 {
		t.Errorf("dry run created %d programs", stats.ProgramsCreated)
	}
}

func TestImportSkipsRecordedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ppl.json", validProgram)

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	info, err := os.Stat(filepath.Join(dir, "ppl.json"))
	if err != nil {
		t.Fatal(err)
	}
	hash, err := HashFile(filepath.Join(dir, "ppl.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := state.MarkImported("ppl.json", info.Size(), hash); err != nil {
		t.Fatalf("MarkImported: %v", err)
	}

	imp := New(nil, state, testLogger(), true)
	stats, err := imp.Import(context.Background(), dir, 1)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.FilesSkipped != 1 {
		t.Errorf("files_skipped = %d, want 1", stats.FilesSkipped)
	}
	if stats.FilesProcessed != 0 {
		t.Errorf("files_processed = %d, want 0", stats.FilesProcessed)
	}
}

func TestStateDBRoundTrip(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatalf("OpenStateDB: %v", err)
	}
	defer state.Close()

	done, err := state.IsImported("a.json", 10, "hash1")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("fresh state db should not report files imported")
	}

	if err := state.MarkImported("a.json", 10, "hash1"); err != nil {
		t.Fatal(err)
	}

	done, err = state.IsImported("a.json", 10, "hash1")
	if err != nil {
		t.Fatal(err)
	}
	if !done {
		t.Error("recorded file should report imported")
	}

	// A changed file must be re-imported.
	done, err = state.IsImported("a.json", 12, "hash2")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("changed content should not count as imported")
	}
}
