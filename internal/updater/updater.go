// Package updater applies incremental corpus deltas to a vector store with
// backup-before-mutate semantics.
package updater

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vitalkb/vitalkb/internal/vectordb"
)

// SourceUpdate carries the freshly chunked documents for one source key.
type SourceUpdate struct {
	Key  string
	Docs []vectordb.Document
}

// Result reports the outcome of one update cycle. BackupID is always set
// once a backup was taken, so a caller can retry a manual restore even when
// the automatic one failed.
type Result struct {
	Success       bool
	BackupID      string
	ItemsAdded    int
	ItemsModified int
	ItemsDeleted  int
	Errors        []string
}

// Updater mutates a Store under a backup-before-mutate policy: the
// persisted file pair is copied aside before any change, and any failure
// during the apply phase triggers a restore of that copy.
type Updater struct {
	store     *vectordb.Store
	backupDir string
}

// New creates an updater writing backups into backupDir.
func New(store *vectordb.Store, backupDir string) *Updater {
	return &Updater{store: store, backupDir: backupDir}
}

// Apply runs one update cycle: new sources are added, modified sources are
// applied as delete-then-re-add, deleted sources are tombstoned, and the
// store is persisted. On failure the pre-mutation backup is restored before
// the error is surfaced; if the restore itself fails both errors are
// reported together and the returned Result still carries the backup id.
func (u *Updater) Apply(ctx context.Context, added, modified []SourceUpdate, deleted []string) (*Result, error) {
	res := &Result{}

	backupID, err := u.backup()
	if err != nil {
		return res, fmt.Errorf("creating backup: %w", err)
	}
	res.BackupID = backupID

	if err := u.apply(ctx, res, added, modified, deleted); err != nil {
		res.Errors = append(res.Errors, err.Error())
		if rerr := u.Restore(backupID); rerr != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("restore failed: %v", rerr))
			return res, fmt.Errorf("update failed (%v) and restore from backup %s also failed: %w", err, backupID, rerr)
		}
		return res, fmt.Errorf("update failed, restored backup %s: %w", backupID, err)
	}

	res.Success = true
	return res, nil
}

func (u *Updater) apply(ctx context.Context, res *Result, added, modified []SourceUpdate, deleted []string) error {
	for _, src := range added {
		count, err := u.store.AddDocuments(ctx, src.Docs)
		if err != nil {
			return fmt.Errorf("adding source %s: %w", src.Key, err)
		}
		res.ItemsAdded += count
	}

	for _, src := range modified {
		u.store.DeleteBySource(src.Key)
		if _, err := u.store.AddDocuments(ctx, src.Docs); err != nil {
			return fmt.Errorf("re-adding modified source %s: %w", src.Key, err)
		}
		res.ItemsModified++
	}

	for _, key := range deleted {
		u.store.DeleteBySource(key)
		res.ItemsDeleted++
	}

	// AddDocuments persists as it goes; a final save covers the tombstones.
	if err := u.store.Save(); err != nil {
		return fmt.Errorf("persisting store: %w", err)
	}
	return nil
}

// backup copies the store's persisted file pair into a fresh backup
// directory and returns its identifier. A store that has never been
// persisted yields an empty backup, which restores to an empty store.
func (u *Updater) backup() (string, error) {
	id := time.Now().UTC().Format("20060102-150405") + "-" + uuid.NewString()[:8]
	dir := filepath.Join(u.backupDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	for _, name := range []string{vectordb.IndexFileName, vectordb.MetadataFileName} {
		src := filepath.Join(u.store.Dir(), name)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(src, filepath.Join(dir, name)); err != nil {
			return "", err
		}
	}
	return id, nil
}

// Restore replaces the store's persisted files with the given backup and
// reloads the store from disk.
func (u *Updater) Restore(backupID string) error {
	dir := filepath.Join(u.backupDir, backupID)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("backup %s: %w", backupID, err)
	}

	for _, name := range []string{vectordb.IndexFileName, vectordb.MetadataFileName} {
		dst := filepath.Join(u.store.Dir(), name)
		src := filepath.Join(dir, name)

		if _, err := os.Stat(src); os.IsNotExist(err) {
			if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing %s: %w", name, err)
			}
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}

	loaded, err := u.store.Load()
	if err != nil {
		return fmt.Errorf("reloading store after restore: %w", err)
	}
	if !loaded {
		// The backup was of a never-persisted store; reset to empty.
		return u.store.Clear()
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy to %s: %w", dst, err)
	}
	return out.Close()
}
