package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"registry-report/internal/clients"
	"registry-report/internal/repository"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const defaultHistoryTTL = 24 * time.Hour

// HistoryStore persists report records per user. GetReport returns
// clients.ErrReportNotFound for expired records.
type HistoryStore interface {
	PutReport(ctx context.Context, userID int64, id string, payload []byte, ttl time.Duration) error
	GetReport(ctx context.Context, id string) ([]byte, error)
	ReportIDs(ctx context.Context, userID int64) ([]string, error)
	ForgetReports(ctx context.Context, userID int64, ids ...string) error
}

// Archiver keeps a copy of a generated file and returns where it can be downloaded.
type Archiver interface {
	Archive(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

type Notifier interface {
	NotifyReportGenerated(ctx context.Context, userID int64, n clients.ReportNotice) error
}

type ReportRecord struct {
	ID         string         `json:"id"`
	UserID     int64          `json:"user_id"`
	ReportType ReportType     `json:"type"`
	Format     string         `json:"format"`
	Filename   string         `json:"filename"`
	Size       int            `json:"size"`
	FileURL    *string        `json:"file_url"`
	Filters    map[string]any `json:"filters"`
	Created    time.Time      `json:"created_at"`
}

type HistoryService struct {
	store    HistoryStore
	archiver Archiver
	notifier Notifier
	ttl      time.Duration
	now      func() time.Time
	log      *slog.Logger
}

// NewHistoryService wires the optional side effects of a generated report.
// Any of store, archiver and notifier may be nil.
func NewHistoryService(store HistoryStore, archiver Archiver, notifier Notifier, ttl time.Duration, logger *slog.Logger) *HistoryService {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryService{
		store:    store,
		archiver: archiver,
		notifier: notifier,
		ttl:      ttl,
		now:      time.Now,
		log:      logger,
	}
}

// Record archives, stores and announces a generated report. Every step is
// best-effort: failures are logged and the returned record is always usable.
func (s *HistoryService) Record(ctx context.Context, userID int64, res *Result) *ReportRecord {
	rec := &ReportRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		ReportType: res.Type,
		Format:     string(res.Format),
		Filename:   res.Filename,
		Size:       len(res.Body),
		Filters:    buildFiltersMap(res.Filter),
		Created:    res.CreatedAt,
	}

	if s.archiver != nil {
		url, err := s.archiver.Archive(ctx, res.Filename, res.ContentType, res.Body)
		if err != nil {
			s.log.WarnContext(ctx, "report archive failed", "report_id", rec.ID, "error", err)
		} else {
			rec.FileURL = &url
		}
	}

	if s.store != nil {
		if err := s.save(ctx, rec); err != nil {
			s.log.WarnContext(ctx, "report history write failed", "report_id", rec.ID, "error", err)
		}
	}

	if s.notifier != nil {
		err := s.notifier.NotifyReportGenerated(ctx, userID, clients.ReportNotice{
			ID:         rec.ID,
			Filename:   rec.Filename,
			ReportType: string(rec.ReportType),
			Format:     rec.Format,
			URL:        rec.FileURL,
		})
		if err != nil {
			s.log.WarnContext(ctx, "report notification failed", "report_id", rec.ID, "error", err)
		}
	}

	return rec
}

func (s *HistoryService) save(ctx context.Context, rec *ReportRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return s.store.PutReport(ctx, rec.UserID, rec.ID, payload, s.ttl)
}

// List returns the caller's recent reports, newest first. Ids whose record has
// expired are pruned from the index.
func (s *HistoryService) List(ctx context.Context, userID int64) ([]map[string]any, error) {
	out := []map[string]any{}
	if s.store == nil {
		return out, nil
	}

	ids, err := s.store.ReportIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get report ids: %w", err)
	}

	var records []ReportRecord
	var stale []string
	for _, id := range ids {
		data, err := s.store.GetReport(ctx, id)
		if errors.Is(err, clients.ErrReportNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get report %s: %w", id, err)
		}

		var rec ReportRecord
		if err := json.Unmarshal(data, &rec); err != nil || rec.UserID != userID {
			stale = append(stale, id)
			continue
		}
		records = append(records, rec)
	}

	if len(stale) > 0 {
		if err := s.store.ForgetReports(ctx, userID, stale...); err != nil {
			s.log.WarnContext(ctx, "report history prune failed", "user_id", userID, "error", err)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Created.Equal(records[j].Created) {
			return records[i].Created.After(records[j].Created)
		}
		return records[i].ID < records[j].ID
	})

	now := s.now()
	for _, rec := range records {
		out = append(out, map[string]any{
			"id":          rec.ID,
			"type":        rec.ReportType,
			"format":      rec.Format,
			"filename":    rec.Filename,
			"size":        rec.Size,
			"user_id":     rec.UserID,
			"file_url":    rec.FileURL,
			"filters":     rec.Filters,
			"created_at":  rec.Created,
			"created_ago": humanize.RelTime(rec.Created, now, "ago", "from now"),
		})
	}

	return out, nil
}

func buildFiltersMap(f repository.EntriesFilter) map[string]any {
	filters := map[string]any{}
	if f.Status != nil {
		filters["status"] = string(*f.Status)
	}
	if f.Island != nil {
		filters["island"] = *f.Island
	}
	if f.Branch != nil {
		filters["branch"] = *f.Branch
	}
	if f.StartDate != nil {
		filters["startDate"] = f.StartDate.Format("2006-01-02")
	}
	if f.EndDate != nil {
		filters["endDate"] = f.EndDate.Format("2006-01-02")
	}
	if f.MinAmount != nil {
		filters["minAmount"] = f.MinAmount.String()
	}
	if f.MaxAmount != nil {
		filters["maxAmount"] = f.MaxAmount.String()
	}
	return filters
}
