package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"registry-report/internal/domain"
	"registry-report/internal/metrics"
	"registry-report/internal/report"
	"registry-report/internal/repository"
)

//go:generate mockgen -destination=mocks/entry_repository.go -package=mocks registry-report/internal/service EntryRepository

type ReportType string

const (
	ReportSummary  ReportType = "SUMMARY"
	ReportDetailed ReportType = "DETAILED"
	ReportCustom   ReportType = "CUSTOM"
)

var ReportTypes = []ReportType{ReportSummary, ReportDetailed, ReportCustom}

func ParseReportType(s string) (ReportType, bool) {
	t := ReportType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ReportTypes {
		if known == t {
			return t, true
		}
	}
	return "", false
}

var (
	ErrUnknownReportType = errors.New("unknown report type")
	ErrUnknownFormat     = errors.New("unknown report format")
)

const filenameTimeLayout = "20060102-1504"

type EntryRepository interface {
	List(ctx context.Context, f repository.EntriesFilter) ([]domain.Entry, error)
}

type aggregation func(entries []domain.Entry) Tabular

var aggregations = map[ReportType]aggregation{
	ReportSummary:  func(e []domain.Entry) Tabular { return Summarize(e) },
	ReportDetailed: func(e []domain.Entry) Tabular { return Detail(e) },
	ReportCustom:   func(e []domain.Entry) Tabular { return BranchPerformanceOf(e) },
}

type ReportRequest struct {
	Type    ReportType
	Format  report.Format
	Filters RawFilters
}

// Result is a finished export. Body is always complete; a failed export
// returns no Result.
type Result struct {
	Type        ReportType
	Format      report.Format
	Filter      repository.EntriesFilter
	Filename    string
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

type ReportConfig struct {
	AppName        string
	CurrencySymbol string
	Location       *time.Location
	Now            func() time.Time
}

type ReportService struct {
	repo      EntryRepository
	encoders  report.Encoders
	formatter report.Formatter
	appName   string
	now       func() time.Time
	loc       *time.Location
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewReportService(repo EntryRepository, cfg ReportConfig, m *metrics.Metrics, logger *slog.Logger) *ReportService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	appName := strings.ToLower(strings.TrimSpace(cfg.AppName))
	if appName == "" {
		appName = "registry"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		repo:      repo,
		encoders:  report.NewEncoders(now, loc),
		formatter: report.NewFormatter(cfg.CurrencySymbol),
		appName:   appName,
		now:       now,
		loc:       loc,
		metrics:   m,
		log:       logger,
	}
}

// Generate normalizes the filters, runs the aggregation, builds the table and
// encodes it in the requested format.
func (s *ReportService) Generate(ctx context.Context, req ReportRequest) (*Result, error) {
	started := time.Now()

	aggregate, ok := aggregations[req.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, req.Type)
	}
	encoder, ok := s.encoders[req.Format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, req.Format)
	}

	filter := NormalizeFilters(req.Filters)
	entries, err := s.repo.List(ctx, filter)
	if err != nil {
		s.metrics.IncFailure("aggregate")
		s.log.ErrorContext(ctx, "report aggregation failed",
			"report_type", req.Type, "format", req.Format, "error", err)
		return nil, fmt.Errorf("aggregate %s: %w", req.Type, err)
	}
	s.metrics.ObserveRows(string(req.Type), len(entries))

	table := aggregate(entries).Table(s.formatter)
	body, err := encoder.Encode(table)
	if err != nil {
		s.metrics.IncFailure("encode")
		s.log.ErrorContext(ctx, "report encoding failed",
			"report_type", req.Type, "format", req.Format, "error", err)
		return nil, fmt.Errorf("encode %s: %w", req.Format, err)
	}

	createdAt := s.now().In(s.loc)
	res := &Result{
		Type:        req.Type,
		Format:      req.Format,
		Filter:      filter,
		Filename:    s.filename(req.Type, encoder.Extension(), createdAt),
		ContentType: encoder.ContentType(),
		Body:        body,
		CreatedAt:   createdAt,
	}

	s.metrics.IncGenerated(string(req.Type), string(req.Format))
	s.metrics.ObserveDuration(string(req.Type), time.Since(started))
	s.log.InfoContext(ctx, "report generated",
		"report_type", req.Type, "format", req.Format, "rows", len(entries), "bytes", len(body))

	return res, nil
}

// Preview runs the aggregation and returns its raw result, skipping table
// building and encoding. Amounts stay numeric.
func (s *ReportService) Preview(ctx context.Context, reportType ReportType, raw RawFilters) (Tabular, error) {
	aggregate, ok := aggregations[reportType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, reportType)
	}

	entries, err := s.repo.List(ctx, NormalizeFilters(raw))
	if err != nil {
		s.metrics.IncFailure("aggregate")
		s.log.ErrorContext(ctx, "report preview failed", "report_type", reportType, "error", err)
		return nil, fmt.Errorf("aggregate %s: %w", reportType, err)
	}
	return aggregate(entries), nil
}

func (s *ReportService) filename(t ReportType, ext string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s.%s", s.appName, strings.ToLower(string(t)), at.Format(filenameTimeLayout), ext)
}
