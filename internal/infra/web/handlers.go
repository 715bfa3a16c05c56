package web

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/infra/payment"
)

const signatureHeader = "X-Webhook-Signature"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleWebhook acknowledges every event the reconciler accepts with a fixed
// success envelope. Any processing failure collapses to one opaque 500 so the
// provider retries without learning anything about internal state.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.log.Warn().Err(err).Msg("webhook body read failed")
		s.webhookFailure(w)
		return
	}

	if s.webhookSecret != "" {
		if !payment.VerifyWebhookSignature(s.webhookSecret, body, r.Header.Get(signatureHeader)) {
			s.log.Warn().Msg("webhook signature mismatch")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid signature"})
			return
		}
	}

	var evt model.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		s.log.Warn().Err(err).Msg("webhook payload is not valid JSON")
		s.webhookFailure(w)
		return
	}

	if err := s.reconcileUC.HandleEvent(r.Context(), &evt); err != nil {
		s.log.Error().Err(err).
			Str("event_id", evt.ID).
			Str("event_type", evt.EventType).
			Msg("webhook event processing failed")
		s.webhookFailure(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Webhook received successfully",
	})
}

func (s *Server) webhookFailure(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "Webhook processing failed",
	})
}

// ===== dashboard auth =====

type loginRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.adminPassword == "" || s.auth == nil {
		s.log.Error().Msg("admin login is not configured")
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.adminPassword)) != 1 {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		s.log.Error().Err(err).Msg("failed to mint admin session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Login failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ===== dashboard API =====

func (s *Server) handlePlansList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list plans"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []*model.SubscriptionPlan `json:"data"`
	}{Data: plans})
}

func (s *Server) handlePlanGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid plan id"})
		return
	}
	plan, err := s.planUC.FindByID(r.Context(), id)
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, plan)
	case domain.ErrNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Plan not found"})
	case domain.ErrInvalidArgument:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid plan id"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get plan"})
	}
}

func (s *Server) handleUserBilling(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	billing, err := s.billingUC.UserBilling(r.Context(), userID)
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, billing)
	case domain.ErrInvalidArgument:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User ID is required"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get user billing"})
	}
}

func (s *Server) handleUserPaid(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	paid, err := s.billingUC.HasPaid(r.Context(), userID)
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, map[string]bool{"paid": paid})
	case domain.ErrInvalidArgument:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "User ID is required"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to check payments"})
	}
}

func (s *Server) handlePaymentGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.billingUC.PaymentByID(r.Context(), id)
	switch err {
	case nil:
		writeJSON(w, http.StatusOK, p)
	case domain.ErrNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Payment not found"})
	case domain.ErrInvalidArgument:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Payment ID is required"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get payment"})
	}
}
