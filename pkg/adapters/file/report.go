package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/alignenv/pkg/domain"
)

// ErrReportNotFound is returned by Load for a stream with no report file.
var ErrReportNotFound = errors.New("report not found")

// Report is the persisted content of one stream after a run.
type Report struct {
	Stream  string                      `json:"stream"`
	Seed    uint64                      `json:"seed"`
	Records []*domain.TransactionRecord `json:"records"`
	Splits  []domain.SplitDescriptor    `json:"splits"`
}

// ReportStore writes one JSON report per stream in a directory.
type ReportStore struct {
	BasePath string
}

// NewReportStore creates a store rooted at basePath, ".alignenv/reports" when empty.
func NewReportStore(basePath string) *ReportStore {
	if basePath == "" {
		basePath = filepath.Join(".alignenv", "reports")
	}
	return &ReportStore{BasePath: basePath}
}

// Save writes the report atomically: a temp file in the same directory is
// written, synced and renamed over the destination.
func (s *ReportStore) Save(r *Report) error {
	if r.Stream == "" {
		return fmt.Errorf("stream cannot be empty")
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure report directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	tmp, err := os.CreateTemp(s.BasePath, "tmp-"+r.Stream+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	dest := s.path(r.Stream)
	// os.Rename does not replace an existing file on Windows.
	if _, err := os.Stat(dest); err == nil {
		if err := os.Remove(dest); err != nil {
			return fmt.Errorf("failed to replace report: %w", err)
		}
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to rename report: %w", err)
	}
	return nil
}

// Load reads the report of stream.
func (s *ReportStore) Load(stream string) (*Report, error) {
	data, err := os.ReadFile(s.path(stream))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, stream)
		}
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &r, nil
}

// List returns the streams that have a report, sorted.
func (s *ReportStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	streams := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		streams = append(streams, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(streams)
	return streams, nil
}

func (s *ReportStore) path(stream string) string {
	return filepath.Join(s.BasePath, stream+".json")
}
