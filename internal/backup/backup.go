// Package backup provides tar.gz-based backup, restore, and retention
// for the benchmark catalog database.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// DefaultKeep is how many archives Prune retains by default.
const DefaultKeep = 7

// archivePrefix and archiveExt frame the timestamped backup filenames.
const (
	archivePrefix = "rigmatch-backup-"
	archiveExt    = ".tar.gz"
)

// Create writes a tar.gz archive of the SQLite catalog and an optional
// config file into dir, named with a UTC timestamp. It performs a WAL
// checkpoint before copying the database to ensure consistency, and
// returns the archive path.
func Create(_ context.Context, dbPath, configPath, dir string) (string, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return "", fmt.Errorf("database file not found: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	// Checkpoint WAL to flush pending writes.
	if err := checkpointWAL(dbPath); err != nil {
		return "", fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	name := archivePrefix + time.Now().UTC().Format("20060102-150405") + archiveExt
	outputPath := filepath.Join(dir, name)

	outFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("creating output file: %w", err)
	}
	// Close errors matter here: gzip flushes its trailer on Close, so a
	// discarded one could report success over a truncated archive.
	if err := writeArchive(outFile, dbPath, configPath); err != nil {
		outFile.Close()
		os.Remove(outputPath)
		return "", err
	}
	if err := outFile.Close(); err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("closing archive: %w", err)
	}

	return outputPath, nil
}

// writeArchive streams the tar.gz contents to w, closing the tar and
// gzip layers explicitly so their flush errors surface.
func writeArchive(w io.Writer, dbPath, configPath string) error {
	gw := gzip.NewWriter(w)
	tw := tar.NewWriter(gw)

	if err := addFileToTar(tw, dbPath, filepath.Base(dbPath)); err != nil {
		tw.Close()
		gw.Close()
		return fmt.Errorf("adding database to archive: %w", err)
	}

	// The config file is optional; a missing one is skipped silently.
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := addFileToTar(tw, configPath, filepath.Base(configPath)); err != nil {
				tw.Close()
				gw.Close()
				return fmt.Errorf("adding config to archive: %w", err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		gw.Close()
		return fmt.Errorf("finalizing tar stream: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finalizing gzip stream: %w", err)
	}
	return nil
}

// Restore unpacks an archive's database file to dbPath. The database
// must not be open in another process while restoring. Any config file
// in the archive is ignored; only the database is replaced.
func Restore(_ context.Context, archivePath, dbPath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gr.Close()

	wantName := filepath.Base(dbPath)
	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading archive entry: %w", err)
		}
		if filepath.Base(hdr.Name) != wantName {
			continue
		}

		// Write to a temp file first so a failed restore never leaves a
		// truncated database behind.
		tmp, err := os.CreateTemp(filepath.Dir(dbPath), wantName+".restore-*")
		if err != nil {
			return fmt.Errorf("creating temp file: %w", err)
		}
		if _, err := io.Copy(tmp, tr); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("extracting database: %w", err)
		}
		if err := tmp.Close(); err != nil {
			os.Remove(tmp.Name())
			return err
		}
		// Stale WAL/SHM files would shadow the restored data.
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
		if err := os.Rename(tmp.Name(), dbPath); err != nil {
			os.Remove(tmp.Name())
			return fmt.Errorf("replacing database: %w", err)
		}
		return nil
	}
	return fmt.Errorf("archive %s contains no %s", archivePath, wantName)
}

// Entry describes one stored backup archive.
type Entry struct {
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the backup archives in dir, newest first. A missing
// directory yields an empty list.
func List(dir string) ([]Entry, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var out []Entry
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), archivePrefix) || !strings.HasSuffix(e.Name(), archiveExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Path:      filepath.Join(dir, e.Name()),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC(),
		})
	}
	// Timestamped names sort chronologically.
	sort.Slice(out, func(i, j int) bool { return out[i].Path > out[j].Path })
	return out, nil
}

// Prune deletes all but the newest keep archives in dir and returns how
// many were removed. Non-positive keep uses DefaultKeep.
func Prune(dir string, keep int) (int, error) {
	if keep <= 0 {
		keep = DefaultKeep
	}
	entries, err := List(dir)
	if err != nil {
		return 0, err
	}
	if len(entries) <= keep {
		return 0, nil
	}

	removed := 0
	for _, e := range entries[keep:] {
		if err := os.Remove(e.Path); err != nil {
			return removed, fmt.Errorf("removing %s: %w", e.Path, err)
		}
		removed++
	}
	return removed, nil
}

// checkpointWAL opens the database, runs a TRUNCATE checkpoint to flush
// the WAL, and closes the connection.
func checkpointWAL(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// addFileToTar adds a single file to the tar archive under the given name.
func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}
