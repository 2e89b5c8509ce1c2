// Package reports persists AUM reports in an append-only WAL.
package reports

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/coinops/aumfetch/internal/domain"
)

const (
	defaultReportDir   = "./wal/reports"
	reportSegmentLimit = 1000
	reportMaxSegments  = 100
	reportKeyPrefix    = "aum_report_"
)

// WALStore keeps a local history of AUM reports for the web stream and for
// post-hoc inspection.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed report store under the provided directory.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultReportDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "report_",
		SegmentThreshold: reportSegmentLimit,
		MaxSegments:      reportMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init aum report WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the report to the WAL.
func (s *WALStore) Save(report domain.AumReport) error {
	if s == nil || s.wal == nil {
		return errors.New("aum report store is not initialized")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "marshal aum report")
	}

	key := fmt.Sprintf("%s%s", reportKeyPrefix, report.ID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// ReportsAfter returns all reports written after the provided WAL index.
func (s *WALStore) ReportsAfter(index uint64) ([]domain.AumReportRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("aum report store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]domain.AumReportRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, reportKeyPrefix) {
			continue
		}
		var report domain.AumReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, errors.Wrap(err, "decode aum report")
		}
		records = append(records, domain.AumReportRecord{
			Index:  idx,
			Report: report,
		})
	}

	return records, nil
}

// Latest returns the most recent report, or ok=false when the store is empty.
func (s *WALStore) Latest() (domain.AumReport, bool, error) {
	if s == nil || s.wal == nil {
		return domain.AumReport{}, false, errors.New("aum report store is not initialized")
	}

	s.mu.RLock()
	current := s.wal.CurrentIndex()
	s.mu.RUnlock()

	if current == 0 {
		return domain.AumReport{}, false, nil
	}

	records, err := s.ReportsAfter(current - 1)
	if err != nil {
		return domain.AumReport{}, false, err
	}
	if len(records) == 0 {
		return domain.AumReport{}, false, nil
	}

	return records[len(records)-1].Report, true, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("aum report store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
