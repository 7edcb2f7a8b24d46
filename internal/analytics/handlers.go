package analytics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/boulangerie-api/internal/common"
)

// Handler exposes back-office analytics endpoints.
type Handler struct {
	Svc *Service
}

// Sales returns daily sales for ?from=&to= (RFC 3339) or the last ?days=.
func (h *Handler) Sales(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "analytics service not configured")
		return
	}
	query := r.URL.Query()
	fromStr := strings.TrimSpace(query.Get("from"))
	toStr := strings.TrimSpace(query.Get("to"))
	var from, to time.Time
	var err error
	if fromStr != "" && toStr != "" {
		if from, err = time.Parse(time.RFC3339, fromStr); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid from date", nil)
			return
		}
		if to, err = time.Parse(time.RFC3339, toStr); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid to date", nil)
			return
		}
	} else {
		days := h.Svc.DefaultRange
		if days <= 0 {
			days = 30
		}
		if raw := query.Get("days"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				days = parsed
			}
		}
		// Minute granularity keeps the cache key stable between refreshes.
		to = h.Svc.now().UTC().Truncate(time.Minute).Add(time.Minute)
		from = to.AddDate(0, 0, -days)
	}
	if !from.Before(to) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must be before to", nil)
		return
	}
	rows, err := h.Svc.SalesRange(r.Context(), from, to)
	if err != nil {
		common.WriteInternal(w, "failed to compute sales")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}

// TopProducts returns the best selling products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.WriteInternal(w, "analytics service not configured")
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 50 {
		limit = 10
	}
	rows, err := h.Svc.TopProducts(r.Context(), limit)
	if err != nil {
		common.WriteInternal(w, "failed to compute top products")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rows})
}
