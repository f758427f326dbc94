package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// EscalationReport is the durable record written when a unit is escalated.
type EscalationReport struct {
	ID             string     `json:"id"`
	UnitID         string     `json:"unitId"`
	StoryID        string     `json:"storyId,omitempty"`
	Phase          string     `json:"phase,omitempty"`
	Attempts       []Attempt  `json:"attempts"`
	FinalError     string     `json:"finalError"`
	Classification ErrorClass `json:"classification"`
	Timestamp      time.Time  `json:"timestamp"`
}

// EscalationStore persists escalation reports.
//
// Contract:
//   - Save returns a location that identifies the stored report.
//   - Concurrency: implementations must be safe for concurrent use.
type EscalationStore interface {
	Save(ctx context.Context, report EscalationReport) (string, error)
}

// EscalationDir is the escalation directory relative to a project root.
const EscalationDir = ".selfheal/escalations"

// FileStore writes one JSON file per escalation under a directory.
type FileStore struct {
	dir string
}

var _ EscalationStore = (*FileStore)(nil)

// NewFileStore creates a store writing under <root>/.selfheal/escalations.
func NewFileStore(root string) *FileStore {
	return &FileStore{dir: filepath.Join(root, filepath.FromSlash(EscalationDir))}
}

// Dir returns the directory reports are written to.
func (s *FileStore) Dir() string {
	return s.dir
}

// Save writes report to <dir>/<unit>-<timestamp>-<id>.json and returns the
// file path. The directory is created if needed.
func (s *FileStore) Save(ctx context.Context, report EscalationReport) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("recovery: create escalation dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("recovery: encode report: %w", err)
	}

	name := fmt.Sprintf("%s-%s-%s.json",
		sanitize(report.UnitID),
		report.Timestamp.UTC().Format("20060102T150405.000Z"),
		shortID(report.ID))
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("recovery: write report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("recovery: write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("recovery: write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("recovery: write report: %w", err)
	}
	return path, nil
}

// Load reads the report stored at path.
func (s *FileStore) Load(path string) (EscalationReport, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return EscalationReport{}, fmt.Errorf("%w: %s", ErrReportNotFound, path)
	}
	if err != nil {
		return EscalationReport{}, fmt.Errorf("recovery: read report: %w", err)
	}
	var r EscalationReport
	if err := json.Unmarshal(data, &r); err != nil {
		return EscalationReport{}, fmt.Errorf("recovery: decode report %s: %w", path, err)
	}
	return r, nil
}

// List returns every stored report, oldest first.
func (s *FileStore) List() ([]EscalationReport, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("recovery: list reports: %w", err)
	}

	var out []EscalationReport
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		r, err := s.Load(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

// sanitize keeps unit IDs safe for use in file names.
func sanitize(s string) string {
	if s == "" {
		return "unit"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "report"
	}
	return id
}
