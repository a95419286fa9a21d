package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"registry-report/internal/report"
	"registry-report/internal/service"
)

const maxRequestBody = 1 << 20

var errInvalidJSON = errors.New("invalid JSON")

type ReportRequest struct {
	ReportType service.ReportType
	Format     report.Format
	Filters    service.RawFilters
}

type rawReportRequest struct {
	ReportType any `json:"reportType"`
	Format     any `json:"format"`
	Filters    any `json:"filters"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateReportRequest decodes a generate/preview body. Only the shape is
// checked here: enum membership and filter value types. Filter values that
// are well typed but meaningless are left for the normalizer to drop.
func ValidateReportRequest(r *http.Request, requireFormat bool) (*ReportRequest, error) {
	var raw rawReportRequest

	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, errInvalidJSON
	}

	reportType, err := toEnum(raw.ReportType, "reportType", service.ReportTypes, service.ParseReportType)
	if err != nil {
		return nil, err
	}

	var format report.Format
	if requireFormat {
		format, err = toEnum(raw.Format, "format", report.Formats, report.ParseFormat)
		if err != nil {
			return nil, err
		}
	}

	filters, err := toRawFilters(raw.Filters)
	if err != nil {
		return nil, err
	}

	return &ReportRequest{
		ReportType: reportType,
		Format:     format,
		Filters:    filters,
	}, nil
}

func toEnum[T ~string](v any, field string, known []T, parse func(string) (T, bool)) (T, error) {
	var zero T
	s, ok := v.(string)
	if v == nil || (ok && strings.TrimSpace(s) == "") {
		return zero, &ValidationError{Field: field, Message: field + " is required"}
	}
	if !ok {
		return zero, &ValidationError{Field: field, Message: field + " must be a string"}
	}
	parsed, ok := parse(s)
	if !ok {
		names := make([]string, 0, len(known))
		for _, k := range known {
			names = append(names, string(k))
		}
		return zero, &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be one of %s", field, strings.Join(names, ", ")),
		}
	}
	return parsed, nil
}

func toRawFilters(v any) (service.RawFilters, error) {
	var f service.RawFilters
	if v == nil {
		return f, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return f, &ValidationError{Field: "filters", Message: "filters must be an object"}
	}

	fields := []struct {
		key string
		dst *any
	}{
		{"status", &f.Status},
		{"island", &f.Island},
		{"branch", &f.Branch},
		{"startDate", &f.StartDate},
		{"endDate", &f.EndDate},
		{"minAmount", &f.MinAmount},
		{"maxAmount", &f.MaxAmount},
	}
	for _, fd := range fields {
		value, err := toScalar(m[fd.key])
		if err != nil {
			field := "filters." + fd.key
			return service.RawFilters{}, &ValidationError{Field: field, Message: field + " must be a string, number or null"}
		}
		*fd.dst = value
	}
	return f, nil
}

func toScalar(v any) (any, error) {
	switch v.(type) {
	case nil, string, float64:
		return v, nil
	default:
		return nil, &ValidationError{Message: "invalid type for filter field"}
	}
}
