package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type Handler struct {
	approvals service.ApprovalService
	revenue   service.RevenueService
	log       *logger.Logger
}

type submitRequest struct {
	Kind       string          `json:"kind"`
	OriginalID *int64          `json:"original_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
}

type resubmitRequest struct {
	Payload json.RawMessage `json:"payload"`
}

type revenueResponse struct {
	AssetID int64           `json:"asset_id"`
	Revenue decimal.Decimal `json:"revenue"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !h.decode(w, r, &req) {
		return
	}
	kind, err := domain.ParseEntityKind(req.Kind)
	if err != nil {
		h.fail(w, r, domain.NewValidationError("", "kind", err.Error()))
		return
	}

	res, err := h.approvals.Submit(r.Context(), capability(r), kind, req.Payload, req.OriginalID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusAccepted
	if res.Entity != nil {
		status = http.StatusCreated
		if req.OriginalID != nil {
			status = http.StatusOK
		}
	}
	writeJSON(w, status, res)
}

func (h *Handler) Resubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pendingID(w, r)
	if !ok {
		return
	}
	var req resubmitRequest
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.approvals.Resubmit(r.Context(), capability(r), id, req.Payload)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	var kind domain.EntityKind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		k, err := domain.ParseEntityKind(raw)
		if err != nil {
			h.fail(w, r, domain.NewValidationError("", "kind", err.Error()))
			return
		}
		kind = k
	}

	records, err := h.approvals.ListPending(r.Context(), kind)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if records == nil {
		records = []domain.PendingRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pendingID(w, r)
	if !ok {
		return
	}
	view, err := h.approvals.GetPending(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pendingID(w, r)
	if !ok {
		return
	}
	res, err := h.approvals.Approve(r.Context(), capability(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pendingID(w, r)
	if !ok {
		return
	}
	res, err := h.approvals.Reject(r.Context(), capability(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetAssetRevenue(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid asset id")
		return
	}
	total, err := h.revenue.GetAssetRevenue(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revenueResponse{AssetID: id, Revenue: total})
}

func (h *Handler) RecomputeRevenue(w http.ResponseWriter, r *http.Request) {
	report, err := h.revenue.RecomputeAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func capability(r *http.Request) domain.Capability {
	c, _ := CapabilityFromContext(r.Context())
	return c
}

func (h *Handler) pendingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid pending record id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	event := h.log.Warn()
	if status == http.StatusInternalServerError {
		event = h.log.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	writeJSON(w, status, body)
}
