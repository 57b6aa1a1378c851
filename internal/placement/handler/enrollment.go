package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"equilibrium/internal/placement/enrollment"
	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
	dErrors "equilibrium/pkg/domain-errors"
	"equilibrium/pkg/platform/httputil"
)

// Enrollment is the signup flow the enrollment routes call.
type Enrollment interface {
	Register(ctx context.Context, req enrollment.RegisterRequest) (*models.Registration, error)
	Queue(ctx context.Context, limit int) ([]*models.QueueItem, error)
	Complete(ctx context.Context, payment id.PaymentID) (*models.PlacementResult, error)
}

// EnrollmentHandler serves registration, the pending payment queue and
// payment completion.
type EnrollmentHandler struct {
	enrollment Enrollment
	errors     *Handler
}

func NewEnrollment(e Enrollment, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{enrollment: e, errors: &Handler{logger: logger}}
}

func (h *EnrollmentHandler) Register(r chi.Router) {
	r.Post("/registrations", h.handleRegister)
	r.Get("/queue", h.handleQueue)
	r.Post("/payments/{payment_id}/complete", h.handleComplete)
}

type RegisterRequest struct {
	Username   string `json:"username"`
	ReferrerID string `json:"referrer_id,omitempty"`
	TariffCode string `json:"tariff_code"`
}

func (h *EnrollmentHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.errors.writeError(ctx, w, "invalid registration", err)
		return
	}
	var referrer *id.MemberID
	if req.ReferrerID != "" {
		parsed, err := id.ParseMemberID(req.ReferrerID)
		if err != nil {
			h.errors.writeError(ctx, w, "invalid registration", err)
			return
		}
		referrer = &parsed
	}

	reg, err := h.enrollment.Register(ctx, enrollment.RegisterRequest{
		Username:   req.Username,
		ReferrerID: referrer,
		TariffCode: id.TariffCode(req.TariffCode),
	})
	if err != nil {
		h.errors.writeError(ctx, w, "registration failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, reg)
}

func (h *EnrollmentHandler) handleQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errors.writeError(ctx, w, "invalid queue request",
				dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = n
	}
	items, err := h.enrollment.Queue(ctx, limit)
	if err != nil {
		h.errors.writeError(ctx, w, "queue query failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *EnrollmentHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payment, err := id.ParsePaymentID(chi.URLParam(r, "payment_id"))
	if err != nil {
		h.errors.writeError(ctx, w, "invalid completion", err)
		return
	}
	result, err := h.enrollment.Complete(ctx, payment)
	if err != nil {
		h.errors.writeError(ctx, w, "payment completion failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
