package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"registry-report/internal/service"
	"registry-report/internal/transport/auth"
)

func (h *Handler) generateReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReportRequest(w, r, true)
	if !ok {
		return
	}

	res, err := h.reports.Generate(r.Context(), service.ReportRequest{
		Type:    req.ReportType,
		Format:  req.Format,
		Filters: req.Filters,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnknownReportType) || errors.Is(err, service.ErrUnknownFormat) {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		fail(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	if userID, err := auth.GetUserID(r.Context()); err == nil && h.history != nil {
		if rec := h.history.Record(r.Context(), userID, res); rec != nil {
			w.Header().Set("X-Report-Id", rec.ID)
		}
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Body); err != nil {
		h.log.WarnContext(r.Context(), "write report body failed", "error", err)
	}
}

func (h *Handler) previewReport(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeReportRequest(w, r, false)
	if !ok {
		return
	}

	data, err := h.reports.Preview(r.Context(), req.ReportType, req.Filters)
	if err != nil {
		if errors.Is(err, service.ErrUnknownReportType) {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}
		fail(w, http.StatusInternalServerError, "failed to generate preview")
		return
	}

	success(w, map[string]any{
		"reportType": req.ReportType,
		"data":       data,
	})
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserID(r.Context())
	if err != nil {
		fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if h.history == nil {
		success(w, []map[string]any{})
		return
	}

	reports, err := h.history.List(r.Context(), userID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "list report history failed", "user_id", userID, "error", err)
		fail(w, http.StatusInternalServerError, "failed to get report history")
		return
	}

	success(w, reports)
}

func (h *Handler) decodeReportRequest(w http.ResponseWriter, r *http.Request, requireFormat bool) (*ReportRequest, bool) {
	req, err := ValidateReportRequest(r, requireFormat)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			failValidation(w, verr)
			return nil, false
		}
		fail(w, http.StatusBadRequest, "invalid JSON")
		return nil, false
	}
	return req, true
}
