package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lumina-media/backoffice/internal/platform/httpx"
)

// Handler serves the audit timeline to operators.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the audit HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers timeline routes on the given router. Access gating
// happens upstream; these handlers assume an authorized caller.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
	r.Get("/export", h.export)
}

type timelineResponse struct {
	Rows   []timelineRowJSON `json:"rows"`
	Paging PagingInfo        `json:"paging"`
}

type timelineRowJSON struct {
	At         time.Time `json:"at"`
	UserEmail  string    `json:"user_email"`
	Department string    `json:"department,omitempty"`
	Action     string    `json:"action"`
	PagePath   string    `json:"page_path"`
	IPAddress  string    `json:"ip_address,omitempty"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, timelineResponse{Rows: toJSONRows(result.Rows), Paging: result.Paging})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filters := filtersFromQuery(r)
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"rows": toJSONRows(rows)})
}

func filtersFromQuery(r *http.Request) TimelineFilters {
	q := r.URL.Query()
	filters := TimelineFilters{
		UserEmail:  q.Get("user"),
		Department: q.Get("department"),
		Action:     q.Get("action"),
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		filters.Page = v
	}
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil {
		filters.PageSize = v
	}
	if t, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		filters.From = t
	}
	if t, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		filters.To = t
	}
	return filters
}

func toJSONRows(rows []TimelineRow) []timelineRowJSON {
	out := make([]timelineRowJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, timelineRowJSON{
			At:         row.At,
			UserEmail:  row.UserEmail,
			Department: row.Department,
			Action:     row.Action,
			PagePath:   row.PagePath,
			IPAddress:  row.IPAddress,
		})
	}
	return out
}
