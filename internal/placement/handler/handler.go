// Package handler exposes the placement facade over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
	"equilibrium/pkg/platform/httputil"
	"equilibrium/pkg/requestcontext"
)

// Service is the facade the handlers call.
type Service interface {
	Place(ctx context.Context, member id.MemberID, payment id.PaymentID) (*models.PlacementResult, error)
	GetSubtree(ctx context.Context, root *id.MemberID, maxDepth *int) (*models.TreeView, error)
	BonusHistory(ctx context.Context, member *id.MemberID) (*models.BonusHistory, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Tariffs(ctx context.Context) []*models.Tariff
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the placement routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/placements", h.handlePlace)
	r.Get("/tree", h.handleTree)
	r.Get("/bonuses", h.handleBonuses)
	r.Get("/tariffs", h.handleTariffs)
	r.Get("/stats", h.handleStats)
}

// PlaceRequest is the payment-confirmation webhook body.
type PlaceRequest struct {
	MemberID  string `json:"member_id"`
	PaymentID string `json:"payment_id"`
}

func (h *Handler) handlePlace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req PlaceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, "invalid place request", err)
		return
	}
	memberID, err := id.ParseMemberID(req.MemberID)
	if err != nil {
		h.writeError(ctx, w, "invalid place request", err)
		return
	}
	paymentID, err := id.ParsePaymentID(req.PaymentID)
	if err != nil {
		h.writeError(ctx, w, "invalid place request", err)
		return
	}

	result, err := h.service.Place(ctx, memberID, paymentID)
	if err != nil {
		h.writeError(ctx, w, "placement failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	root, err := optionalMemberID(r, "root_member_id")
	if err != nil {
		h.writeError(ctx, w, "invalid tree request", err)
		return
	}
	var maxDepth *int
	if raw := r.URL.Query().Get("max_depth"); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil || depth < 0 {
			h.writeError(ctx, w, "invalid tree request",
				dErrors.New(dErrors.CodeBadRequest, "max_depth must be a non-negative integer"))
			return
		}
		maxDepth = &depth
	}

	view, err := h.service.GetSubtree(ctx, root, maxDepth)
	if err != nil {
		h.writeError(ctx, w, "subtree query failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleBonuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	member, err := optionalMemberID(r, "member_id")
	if err != nil {
		h.writeError(ctx, w, "invalid bonus history request", err)
		return
	}
	history, err := h.service.BonusHistory(ctx, member)
	if err != nil {
		h.writeError(ctx, w, "bonus history query failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func (h *Handler) handleTariffs(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tariffs": h.service.Tariffs(r.Context())})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.writeError(ctx, w, "stats query failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func optionalMemberID(r *http.Request, param string) (*id.MemberID, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	member, err := id.ParseMemberID(raw)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+param)
	}
	return &member, nil
}

// writeError logs at WARN for caller mistakes and ERROR for server faults,
// then writes the error envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	code := dErrors.CodeOf(err)
	args := []any{
		"request_id", requestcontext.RequestID(ctx),
		"code", code,
		"error", err.Error(),
	}
	if dErrors.ToHTTPStatus(code) >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, msg, args...)
	} else {
		h.logger.WarnContext(ctx, msg, args...)
	}
	httputil.WriteError(w, err)
}
