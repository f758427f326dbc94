package heal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// BackupManager copies files before a fix touches them.
//
// Contract:
//   - Backup returns an opaque ID that Restore accepts.
//   - Restore writes the saved content back to the original path.
//   - Concurrency: implementations must be safe for concurrent use.
type BackupManager interface {
	Backup(ctx context.Context, path string) (string, error)
	Restore(ctx context.Context, id string) error
}

// BackupManifest describes one stored backup.
type BackupManifest struct {
	ID        string      `json:"id"`
	Path      string      `json:"path"`
	Mode      fs.FileMode `json:"mode"`
	Size      int64       `json:"size"`
	CreatedAt time.Time   `json:"createdAt"`
}

const (
	manifestFile = "manifest.json"
	dataFile     = "data"
)

// FileBackupManager stores each backup in <dir>/<id>/ as a data file plus a
// JSON manifest.
type FileBackupManager struct {
	dir string
	now func() time.Time
}

var _ BackupManager = (*FileBackupManager)(nil)

// NewFileBackupManager creates a backup manager rooted at dir. The directory
// is created on first backup.
func NewFileBackupManager(dir string) *FileBackupManager {
	return &FileBackupManager{dir: dir, now: time.Now}
}

// Dir returns the backup root.
func (b *FileBackupManager) Dir() string {
	return b.dir
}

// Backup copies path and returns the new backup ID.
func (b *FileBackupManager) Backup(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("heal: resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("heal: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("heal: %s is not a regular file", path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("heal: read %s: %w", path, err)
	}

	id := uuid.NewString()
	dir := filepath.Join(b.dir, id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("heal: create backup dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, dataFile), data, 0o600); err != nil {
		return "", fmt.Errorf("heal: write backup: %w", err)
	}

	manifest := BackupManifest{
		ID:        id,
		Path:      abs,
		Mode:      info.Mode().Perm(),
		Size:      int64(len(data)),
		CreatedAt: b.now().UTC(),
	}
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("heal: encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFile), raw, 0o600); err != nil {
		return "", fmt.Errorf("heal: write manifest: %w", err)
	}
	return id, nil
}

// Restore writes backup id back to its original path.
func (b *FileBackupManager) Restore(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	manifest, err := b.Manifest(id)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filepath.Join(b.dir, id, dataFile))
	if err != nil {
		return fmt.Errorf("heal: read backup %s: %w", id, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(manifest.Path), ".selfheal-restore-*")
	if err != nil {
		return fmt.Errorf("heal: restore %s: %w", manifest.Path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("heal: restore %s: %w", manifest.Path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("heal: restore %s: %w", manifest.Path, err)
	}
	if err := os.Chmod(tmp.Name(), manifest.Mode); err != nil {
		return fmt.Errorf("heal: restore %s: %w", manifest.Path, err)
	}
	if err := os.Rename(tmp.Name(), manifest.Path); err != nil {
		return fmt.Errorf("heal: restore %s: %w", manifest.Path, err)
	}
	return nil
}

// Manifest returns the manifest of backup id.
func (b *FileBackupManager) Manifest(id string) (BackupManifest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return BackupManifest{}, fmt.Errorf("%w: %q", ErrInvalidBackupID, id)
	}
	raw, err := os.ReadFile(filepath.Join(b.dir, id, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return BackupManifest{}, fmt.Errorf("%w: %s", ErrBackupNotFound, id)
	}
	if err != nil {
		return BackupManifest{}, fmt.Errorf("heal: read manifest %s: %w", id, err)
	}
	var m BackupManifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return BackupManifest{}, fmt.Errorf("heal: decode manifest %s: %w", id, err)
	}
	return m, nil
}

// List returns every stored backup, oldest first.
func (b *FileBackupManager) List() ([]BackupManifest, error) {
	entries, err := os.ReadDir(b.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("heal: list backups: %w", err)
	}

	var out []BackupManifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := b.Manifest(e.Name())
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
