package backup

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// newTestDB creates a real SQLite file with one row so backups have
// content worth verifying.
func newTestDB(t *testing.T, dir string) string {
	t.Helper()
	dbPath := filepath.Join(dir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec("CREATE TABLE marker (v TEXT); INSERT INTO marker VALUES ('original')"); err != nil {
		t.Fatal(err)
	}
	return dbPath
}

func readMarker(t *testing.T, dbPath string) string {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var v string
	if err := db.QueryRow("SELECT v FROM marker").Scan(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCreateAndRestore(t *testing.T) {
	dir := t.TempDir()
	dbPath := newTestDB(t, dir)
	backupDir := filepath.Join(dir, "backups")
	ctx := context.Background()

	archive, err := Create(ctx, dbPath, "", backupDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive not written: %v", err)
	}

	// Change the database after the backup, then restore over it.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("UPDATE marker SET v = 'changed'"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if err := Restore(ctx, archive, dbPath); err != nil {
		t.Fatal(err)
	}
	if v := readMarker(t, dbPath); v != "original" {
		t.Errorf("marker = %q after restore, want original", v)
	}
}

func TestCreateIncludesConfig(t *testing.T) {
	dir := t.TempDir()
	dbPath := newTestDB(t, dir)
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  port: 9091\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	archive, err := Create(context.Background(), dbPath, configPath, filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(archive)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty archive")
	}
}

// failingWriter rejects every write, standing in for a full disk.
type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("device full") }

func TestWriteArchiveSurfacesFlushFailure(t *testing.T) {
	dir := t.TempDir()
	dbPath := newTestDB(t, dir)

	err := writeArchive(failingWriter{}, dbPath, "")
	if err == nil {
		t.Fatal("expected an error when the underlying writer fails")
	}
	if !strings.Contains(err.Error(), "device full") {
		t.Errorf("err = %v, want the writer failure surfaced", err)
	}
}

func TestCreateMissingDatabase(t *testing.T) {
	dir := t.TempDir()
	if _, err := Create(context.Background(), filepath.Join(dir, "nope.db"), "", dir); err == nil {
		t.Error("expected an error for a missing database")
	}
}

func TestRestoreRejectsForeignArchive(t *testing.T) {
	dir := t.TempDir()
	dbPath := newTestDB(t, dir)

	archive, err := Create(context.Background(), dbPath, "", filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatal(err)
	}

	// Restoring to a differently named database finds no matching entry.
	err = Restore(context.Background(), archive, filepath.Join(dir, "other.db"))
	if err == nil {
		t.Error("expected an error when the archive has no matching database")
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"rigmatch-backup-20240601-030000.tar.gz",
		"rigmatch-backup-20240608-030000.tar.gz",
		"rigmatch-backup-20240615-030000.tar.gz",
		"notes.txt", // ignored
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if filepath.Base(entries[0].Path) != "rigmatch-backup-20240615-030000.tar.gz" {
		t.Errorf("first entry = %s, want newest", entries[0].Path)
	}
}

func TestListMissingDirectory(t *testing.T) {
	entries, err := List(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0", len(entries))
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)
	for i := range 10 {
		n := archivePrefix + base.AddDate(0, 0, i).Format("20060102-150405") + archiveExt
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := Prune(dir, 0) // default keep
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Errorf("removed %d, want 3", removed)
	}

	entries, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != DefaultKeep {
		t.Fatalf("kept %d, want %d", len(entries), DefaultKeep)
	}
	// The oldest survivor is day 4 of the run.
	oldest := entries[len(entries)-1]
	if filepath.Base(oldest.Path) != "rigmatch-backup-20240604-030000.tar.gz" {
		t.Errorf("oldest kept = %s", oldest.Path)
	}
}

func TestPruneUnderLimit(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, archivePrefix+"20240601-030000"+archiveExt), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := Prune(dir, 7)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed %d, want 0", removed)
	}
}
