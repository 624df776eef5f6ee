package shorturl

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sundayezeilo/urlstore/internal/alias"
	"github.com/sundayezeilo/urlstore/internal/errx"
	"github.com/sundayezeilo/urlstore/internal/httpx"
)

// HTTPAddURLRequest represents one element of the JSON batch body for
// creating short URLs.
type HTTPAddURLRequest struct {
	URL        string `json:"url"`
	Visibility string `json:"visibility,omitempty"`
	Shortener  string `json:"shortener,omitempty"`
}

// Handler provides HTTP handlers over the URL service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// AddURLs handles POST /urls: a batch of URLs to shorten and store.
func (h *Handler) AddURLs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	reqs, err := httpx.DecodeJSON[[]HTTPAddURLRequest](r)
	if err != nil {
		logger.WarnContext(ctx, "failed to decode request", "error", err.Error())
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	serviceReqs := make([]AddURLRequest, 0, len(reqs))
	for _, req := range reqs {
		serviceReqs = append(serviceReqs, AddURLRequest{
			URL:        req.URL,
			Visibility: Visibility(req.Visibility),
			Backend:    alias.Backend(req.Shortener),
		})
	}

	created, err := h.service.AddURLs(ctx, serviceReqs)
	if err != nil {
		h.writeServiceError(ctx, w, logger, err)
		return
	}

	logger.InfoContext(ctx, "urls created", "count", len(created))
	httpx.WriteJSON(w, http.StatusCreated, created)
}

// DeleteURL handles DELETE /urls/{id}. With mark_gone=true the row is
// soft-deleted and answered with 200; a hard delete answers 410 together
// with the removed row.
func (h *Handler) DeleteURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		logger.WarnContext(ctx, "invalid url id", "id", r.PathValue("id"))
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "url id must be an integer", nil)
		return
	}

	filter := FilterByID(id)

	if r.URL.Query().Get("mark_gone") == "true" {
		updated, err := h.service.MarkURLGone(ctx, filter)
		if err != nil {
			h.writeServiceError(ctx, w, logger, err)
			return
		}
		logger.InfoContext(ctx, "url marked gone", "id", updated.ID)
		httpx.WriteJSON(w, http.StatusOK, updated)
		return
	}

	deleted, err := h.service.DeleteURL(ctx, filter)
	if err != nil {
		h.writeServiceError(ctx, w, logger, err)
		return
	}

	logger.InfoContext(ctx, "url deleted", "id", deleted.ID)
	httpx.WriteJSON(w, http.StatusGone, deleted)
}

// ClickByID handles GET /urls/{id}: records the click and redirects.
func (h *Handler) ClickByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "url id must be an integer", nil)
		return
	}
	h.click(w, r, FilterByID(id))
}

// ClickByShortURL handles GET /urls/short-url/{short...}.
func (h *Handler) ClickByShortURL(w http.ResponseWriter, r *http.Request) {
	h.click(w, r, FilterByShortURL(restoreScheme(r.PathValue("short"))))
}

// ClickByFullURL handles GET /urls/full-url/{url...}.
func (h *Handler) ClickByFullURL(w http.ResponseWriter, r *http.Request) {
	h.click(w, r, FilterByURL(restoreScheme(r.PathValue("url"))))
}

func (h *Handler) click(w http.ResponseWriter, r *http.Request, filter Filter) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	clicked, err := h.service.ClickURL(ctx, filter, clientInfoFromRequest(r))
	if err != nil {
		h.writeServiceError(ctx, w, logger, err)
		return
	}

	logger.InfoContext(ctx, "url clicked",
		"id", clicked.ID,
		"short_url", clicked.ShortURL,
		"nclicks", clicked.NClicks,
	)

	httpx.WriteRedirect(w, http.StatusTemporaryRedirect, clicked.URL, clicked)
}

// StatusAll handles GET /statuses/all. The unconstrained filter returns the
// whole table; there is no pagination, so proceed with caution.
func (h *Handler) StatusAll(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, Filter{})
}

// StatusByID handles GET /statuses/{id}.
func (h *Handler) StatusByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "url id must be an integer", nil)
		return
	}
	h.status(w, r, FilterByID(id))
}

// StatusByShortURL handles GET /statuses/short-url/{short...}.
func (h *Handler) StatusByShortURL(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, FilterByShortURL(restoreScheme(r.PathValue("short"))))
}

// StatusByFullURL handles GET /statuses/full-url/{url...}.
func (h *Handler) StatusByFullURL(w http.ResponseWriter, r *http.Request) {
	h.status(w, r, FilterByURL(restoreScheme(r.PathValue("url"))))
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request, filter Filter) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	urls, err := h.service.GetURLs(ctx, filter)
	if err != nil {
		h.writeServiceError(ctx, w, logger, err)
		return
	}
	if urls == nil {
		urls = []URL{}
	}

	httpx.WriteJSON(w, http.StatusOK, urls)
}

// Stats handles GET /stats: process-level liveness data, no store access.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.service.Stats())
}

// PingDatabase handles GET /db/ping.
func (h *Handler) PingDatabase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)

	if err := h.service.Ping(ctx); err != nil {
		logger.ErrorContext(ctx, "database ping failed",
			"error", err.Error(),
			"operation", errx.OpOf(err),
		)
		httpx.WriteError(w, http.StatusServiceUnavailable, "unavailable",
			"database is not reachable", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"ping": "pong"})
}

// writeServiceError maps a service failure onto the HTTP response and logs it
// at a severity matching who caused it.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := errx.KindOf(err)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind.String(),
		"operation", errx.OpOf(err),
	}

	switch kind {
	case errx.NotFound, errx.Invalid, errx.Ambiguous, errx.Conflict:
		logger.WarnContext(ctx, "request rejected", logAttrs...)
	default:
		logger.ErrorContext(ctx, "request failed", logAttrs...)
	}

	httpx.WriteError(w, httpx.ErrorKindToStatus(kind), httpx.ErrorKindToCode(kind),
		userMessage(kind, err), nil)
}

func userMessage(kind errx.Kind, err error) string {
	switch kind {
	case errx.NotFound:
		return "no url matches the given filter"
	case errx.Unavailable:
		return "the service is temporarily unavailable, please try again"
	case errx.Internal, errx.Unknown:
		return "an unexpected error occurred"
	default:
		return err.Error()
	}
}

// clientInfoFromRequest renders the visiting client as the free-text
// descriptor stored alongside a click.
func clientInfoFromRequest(r *http.Request) string {
	return fmt.Sprintf("<address=%s;user-agent=%s>", r.RemoteAddr, r.UserAgent())
}

// restoreScheme undoes ServeMux path cleaning for URL-valued path segments:
// "https://x" arrives as "https:/x" because the mux collapses double slashes.
func restoreScheme(raw string) string {
	if idx := strings.Index(raw, ":/"); idx >= 0 && !strings.Contains(raw, "://") {
		return raw[:idx] + "://" + raw[idx+2:]
	}
	return raw
}
