package database

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BootstrapOptions controls EnsurePersistentStore.
type BootstrapOptions struct {
	// BundledPath is the database file that may ship alongside the
	// application code (and would be clobbered on redeploy).
	BundledPath string

	// PersistentDir is the durable directory the canonical database lives in.
	PersistentDir string

	// Filename of the database inside PersistentDir.
	Filename string

	// LockTimeout bounds the wait for the advisory lock.
	LockTimeout time.Duration

	// InitSchema is invoked on a freshly created empty database.
	InitSchema func(db *sqlx.DB) error
}

func (o *BootstrapOptions) withDefaults() BootstrapOptions {
	out := *o
	if out.Filename == "" {
		out.Filename = "helpdesk.db"
	}
	if out.PersistentDir == "" {
		if dir := os.Getenv("HELPDESK_DATA_DIR"); dir != "" {
			out.PersistentDir = dir
		} else if home, err := os.UserHomeDir(); err == nil {
			out.PersistentDir = filepath.Join(home, ".helpdesk", "data")
		} else {
			out.PersistentDir = "data"
		}
	}
	if out.LockTimeout <= 0 {
		out.LockTimeout = 15 * time.Second
	}
	return out
}

// EnsurePersistentStore guarantees exactly one canonical SQLite file at the
// persistent location and returns its path. A possibly-stale bundled copy is
// reconciled against the persistent copy without ever discarding data:
//
//   - persistent copy exists: it is authoritative; a divergent bundled copy
//     is moved aside into a timestamped backup, an identical one removed;
//   - only a bundled copy exists: it is moved into the persistent location;
//   - neither exists: an empty database is created and InitSchema runs.
//
// Concurrent process starts are serialized by an advisory lock file next to
// the database; the lock is released on every exit path.
func EnsurePersistentStore(opts BootstrapOptions) (string, error) {
	o := opts.withDefaults()

	if err := os.MkdirAll(o.PersistentDir, 0o755); err != nil {
		return "", &StorageIOError{Op: "mkdir", Path: o.PersistentDir, Err: err}
	}

	persistentPath := filepath.Join(o.PersistentDir, o.Filename)
	lockPath := persistentPath + ".lock"

	release, err := acquireLock(lockPath, o.LockTimeout)
	if err != nil {
		return "", err
	}
	defer release()

	persistentExists := fileExists(persistentPath)
	bundledExists := o.BundledPath != "" && fileExists(o.BundledPath)

	if persistentExists {
		if bundledExists {
			reconcileBundled(o.BundledPath, persistentPath, o.PersistentDir)
		}
		return persistentPath, nil
	}

	if bundledExists {
		if err := moveFile(o.BundledPath, persistentPath); err != nil {
			return "", err
		}
		log.Printf("database: moved bundled DB to persistent location %s", persistentPath)
		return persistentPath, nil
	}

	db, err := Connect(persistentPath)
	if err != nil {
		return "", &StorageIOError{Op: "create", Path: persistentPath, Err: err}
	}
	defer db.Close()
	if o.InitSchema != nil {
		if err := o.InitSchema(db); err != nil {
			return "", fmt.Errorf("schema init failed: %w", err)
		}
	}
	log.Printf("database: created empty persistent DB at %s", persistentPath)
	return persistentPath, nil
}

// reconcileBundled handles a bundled copy found while a persistent copy
// already exists. Divergent content is archived, never deleted; failures here
// are logged and non-fatal because the persistent copy stays authoritative.
func reconcileBundled(bundledPath, persistentPath, dir string) {
	bundledHash, err1 := hashFile(bundledPath)
	persistentHash, err2 := hashFile(persistentPath)

	if err1 == nil && err2 == nil && bundledHash != persistentHash {
		backup := filepath.Join(dir, fmt.Sprintf("repo_backup_%s.db", time.Now().Format("20060102_150405")))
		if err := moveFile(bundledPath, backup); err != nil {
			log.Printf("database: could not move bundled DB to backup: %v", err)
			return
		}
		log.Printf("database: bundled DB diverged, moved to backup %s", backup)
		return
	}

	// Identical content (or unhashable): the bundled copy is redundant and
	// only invites confusion on the next deploy cycle.
	if err := os.Remove(bundledPath); err != nil {
		log.Printf("database: could not remove redundant bundled DB: %v", err)
	} else {
		log.Printf("database: removed redundant bundled DB %s", bundledPath)
	}
}

// acquireLock creates the lock file with O_EXCL, polling until timeout.
// The returned release func removes the lock and is safe to call once.
func acquireLock(lockPath string, timeout time.Duration) (func(), error) {
	deadline := time.Now().Add(timeout)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "pid:%d token:%s time:%s\n", os.Getpid(), uuid.NewString(), time.Now().Format(time.RFC3339))
			f.Close()
			return func() {
				if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
					log.Printf("database: could not remove lock file %s: %v", lockPath, err)
				}
			}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, &StorageIOError{Op: "lock", Path: lockPath, Err: err}
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s held past %s", ErrLockTimeout, lockPath, timeout)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// moveFile renames src to dst, falling back to copy-then-delete across
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		log.Printf("database: copied %s but could not remove source: %v", src, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &StorageIOError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &StorageIOError{Op: "create", Path: dst, Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return &StorageIOError{Op: "copy", Path: dst, Err: err}
	}
	return out.Sync()
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
