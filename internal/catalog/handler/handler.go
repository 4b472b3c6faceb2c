package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"countrycatalog/internal/catalog/models"
	"countrycatalog/internal/catalog/refresh"
	dErrors "countrycatalog/pkg/domain-errors"
	"countrycatalog/pkg/platform/httputil"
	"countrycatalog/pkg/requestcontext"
)

// Service defines the catalog operations served over HTTP.
type Service interface {
	Refresh(ctx context.Context) (*refresh.Result, error)
	List(ctx context.Context, region, currency, sort string) ([]*models.Country, error)
	Show(ctx context.Context, name string) (*models.Country, error)
	Destroy(ctx context.Context, name string) (*models.Country, error)
	Status(ctx context.Context) (*models.Status, error)
	SummaryImagePath(ctx context.Context) (string, error)
}

// Handler handles the catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a new catalog Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register registers the catalog routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/countries/refresh", h.handleRefresh)
	r.Get("/countries", h.handleList)
	r.Get("/countries/image", h.handleImage)
	r.Get("/countries/{name}", h.handleShow)
	r.Delete("/countries/{name}", h.handleDestroy)
	r.Get("/status", h.handleStatus)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := h.service.Refresh(ctx)
	if err != nil {
		h.writeError(ctx, w, "refresh failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toRefreshResponse(result))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	countries, err := h.service.List(ctx, q.Get("region"), q.Get("currency"), q.Get("sort"))
	if err != nil {
		h.writeError(ctx, w, "list countries failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, countries)
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	country, err := h.service.Show(ctx, nameParam(r))
	if err != nil {
		h.writeError(ctx, w, "show country failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, country)
}

func (h *Handler) handleDestroy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := h.service.Destroy(ctx, nameParam(r)); err != nil {
		h.writeError(ctx, w, "delete country failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, MessageResponse{Message: msgDeleted})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, err := h.service.Status(ctx)
	if err != nil {
		h.writeError(ctx, w, "status failed", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	path, err := h.service.SummaryImagePath(ctx)
	if err != nil {
		h.writeError(ctx, w, "summary image unavailable", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, path)
}

// writeError logs at a level matching the failure and writes the envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	requestID := requestcontext.RequestID(ctx)
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound), dErrors.HasCode(err, dErrors.CodeBadRequest):
		h.logger.DebugContext(ctx, msg, "request_id", requestID, "error", err)
	case dErrors.HasCode(err, dErrors.CodeConflict), dErrors.HasCode(err, dErrors.CodeUnavailable):
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	default:
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	}
	httputil.WriteError(w, err)
}

func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}
