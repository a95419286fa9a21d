package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"registry-report/internal/service"
	"registry-report/internal/transport/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ReportGenerator interface {
	Generate(ctx context.Context, req service.ReportRequest) (*service.Result, error)
	Preview(ctx context.Context, reportType service.ReportType, raw service.RawFilters) (service.Tabular, error)
}

type ReportHistory interface {
	Record(ctx context.Context, userID int64, res *service.Result) *service.ReportRecord
	List(ctx context.Context, userID int64) ([]map[string]any, error)
}

// FileResolver maps a stored archive name to a local path and download name.
type FileResolver interface {
	Resolve(file string) (path, original string, err error)
}

type WebSocketAcceptor interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, userID int64)
}

type Handler struct {
	reports ReportGenerator
	history ReportHistory
	files   FileResolver
	ws      WebSocketAcceptor
	log     *slog.Logger
}

func NewHandler(reports ReportGenerator, history ReportHistory, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reports: reports,
		history: history,
		log:     logger,
	}
}

// WithFiles serves archived reports under /files.
func (h *Handler) WithFiles(files FileResolver) *Handler {
	h.files = files
	return h
}

// WithWebSocket accepts authenticated websocket connections on /ws.
func (h *Handler) WithWebSocket(ws WebSocketAcceptor) *Handler {
	h.ws = ws
	return h
}

func (h *Handler) InitRouter() *chi.Mux {
	return h.InitRouterWithAuth(nil)
}

// InitRouterWithAuth builds the router. With a nil authMiddleware the report
// routes are open, which is only meant for local runs.
func (h *Handler) InitRouterWithAuth(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, "ok", nil)
	})

	if h.files != nil {
		r.Get("/files/{file}", h.downloadFile)
	}

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}

		if h.ws != nil {
			r.Get("/ws", h.openWebSocket)
		}

		r.Route("/reports", func(r chi.Router) {
			if authMiddleware != nil {
				r.Use(auth.RequirePermission(auth.PermissionRead))
			}
			r.Post("/generate", h.generateReport)
			r.Post("/preview", h.previewReport)
			r.Get("/history", h.listHistory)
		})
	})

	return r
}
