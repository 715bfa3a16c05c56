//go:build !integration

package web

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"billing-service/internal/config"
	"billing-service/internal/domain"
	"billing-service/internal/domain/model"
	"billing-service/internal/usecase"
)

// --- Mock use cases ---

type mockReconcileUC struct {
	mu     sync.Mutex
	events []*model.WebhookEvent
	err    error
}

func (m *mockReconcileUC) HandleEvent(ctx context.Context, evt *model.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return m.err
}

type mockPlanUC struct {
	usecase.PlanUseCase // embed for forward compatibility
	plans               []*model.SubscriptionPlan
	findErr             error
}

func (m *mockPlanUC) List(ctx context.Context) ([]*model.SubscriptionPlan, error) {
	return m.plans, nil
}

func (m *mockPlanUC) FindByID(ctx context.Context, id int64) (*model.SubscriptionPlan, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, p := range m.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockBillingUC struct {
	usecase.BillingUseCase
	billing *usecase.UserBilling
	err     error
}

func (m *mockBillingUC) UserBilling(ctx context.Context, userID string) (*usecase.UserBilling, error) {
	if m.err != nil {
		return nil, m.err
	}
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return m.billing, nil
}

// --- helpers ---

func testConfig(webhookSecret string) *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: 0},
		Provider: config.ProviderConfig{WebhookSecret: webhookSecret},
		Admin: config.AdminConfig{
			Password:   "hunter2",
			JWTSecret:  "test-jwt-secret",
			SessionTTL: 30 * time.Minute,
		},
	}
}

func newTestServer(t *testing.T, rec *mockReconcileUC, secret string) (*Server, http.Handler) {
	t.Helper()
	logger := zerolog.Nop()
	srv := NewServer(testConfig(secret), rec,
		&mockPlanUC{plans: []*model.SubscriptionPlan{{ID: 1, Name: "Basic"}}},
		&mockBillingUC{billing: &usecase.UserBilling{
			Subscriptions: []*model.UserSubscription{},
			Payments:      []*model.PaymentHistory{},
		}},
		&logger)
	return srv, srv.Router()
}

func postWebhook(handler http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

const sampleEvent = `{
	"id": "evt_1",
	"eventType": "checkout.completed",
	"object": {
		"id": "pay_1",
		"request_id": "u1",
		"product": {"id": "prod_1", "billing_type": "one-time"},
		"metadata": {"credit": "50"}
	}
}`

// --- tests ---

func TestWebhook_SuccessEnvelope(t *testing.T) {
	rec := &mockReconcileUC{}
	_, handler := newTestServer(t, rec, "")

	resp := postWebhook(handler, sampleEvent, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", resp.Code, resp.Body.String())
	}

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Message != "Webhook received successfully" {
		t.Fatalf("unexpected envelope: %+v", body)
	}

	if len(rec.events) != 1 || rec.events[0].ID != "evt_1" {
		t.Fatalf("event not forwarded to reconciler: %+v", rec.events)
	}
	if rec.events[0].Object.Metadata.StringOr("credit", "") != "50" {
		t.Fatalf("metadata lost in decoding")
	}
}

func TestWebhook_FailureIsOpaque500(t *testing.T) {
	rec := &mockReconcileUC{err: errors.New("credit store exploded: user=u1 table=credit_usage")}
	_, handler := newTestServer(t, rec, "")

	resp := postWebhook(handler, sampleEvent, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Webhook processing failed" {
		t.Fatalf("error body must be generic, got %q", body["error"])
	}
}

func TestWebhook_InvalidJSONBody(t *testing.T) {
	rec := &mockReconcileUC{}
	_, handler := newTestServer(t, rec, "")

	resp := postWebhook(handler, `{"eventType": `, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("want 500 for undecodable body, got %d", resp.Code)
	}
	if len(rec.events) != 0 {
		t.Fatal("undecodable body must not reach the reconciler")
	}
}

func TestWebhook_MissingProduct(t *testing.T) {
	// End to end through the real reconciler error type: a payload without
	// object.product is a processing failure, not a 4xx.
	rec := &mockReconcileUC{err: domain.ErrMalformedEvent}
	_, handler := newTestServer(t, rec, "")

	resp := postWebhook(handler, `{"id":"evt_2","eventType":"checkout.completed","object":{"request_id":"u1"}}`, nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", resp.Code)
	}
}

func TestWebhook_SignatureVerification(t *testing.T) {
	const secret = "whsec_test"
	sign := func(body string) string {
		h := hmac.New(sha256.New, []byte(secret))
		h.Write([]byte(body))
		return hex.EncodeToString(h.Sum(nil))
	}

	t.Run("valid signature accepted", func(t *testing.T) {
		rec := &mockReconcileUC{}
		_, handler := newTestServer(t, rec, secret)
		resp := postWebhook(handler, sampleEvent, map[string]string{signatureHeader: sign(sampleEvent)})
		if resp.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", resp.Code, resp.Body.String())
		}
	})

	t.Run("bad signature rejected", func(t *testing.T) {
		rec := &mockReconcileUC{}
		_, handler := newTestServer(t, rec, secret)
		resp := postWebhook(handler, sampleEvent, map[string]string{signatureHeader: "deadbeef"})
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", resp.Code)
		}
		if len(rec.events) != 0 {
			t.Fatal("unsigned event must not reach the reconciler")
		}
	})

	t.Run("missing signature rejected", func(t *testing.T) {
		rec := &mockReconcileUC{}
		_, handler := newTestServer(t, rec, secret)
		resp := postWebhook(handler, sampleEvent, nil)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", resp.Code)
		}
	})
}

func TestHealthz(t *testing.T) {
	_, handler := newTestServer(t, &mockReconcileUC{}, "")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
}

func login(t *testing.T, handler http.Handler, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAdminAuth(t *testing.T) {
	_, handler := newTestServer(t, &mockReconcileUC{}, "")

	t.Run("wrong password", func(t *testing.T) {
		if rec := login(t, handler, "nope"); rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("dashboard requires session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("login then list plans", func(t *testing.T) {
		loginRec := login(t, handler, "hunter2")
		if loginRec.Code != http.StatusOK {
			t.Fatalf("login: want 200, got %d, body=%s", loginRec.Code, loginRec.Body.String())
		}
		cookies := loginRec.Result().Cookies()
		if len(cookies) == 0 {
			t.Fatal("login must set a session cookie")
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		var body struct {
			Data []*model.SubscriptionPlan `json:"data"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Data) != 1 || body.Data[0].Name != "Basic" {
			t.Fatalf("plans mismatch: %+v", body.Data)
		}
	})

	t.Run("bearer token works too", func(t *testing.T) {
		srv, h := newTestServer(t, &mockReconcileUC{}, "")
		tokenRec := httptest.NewRecorder()
		token, err := srv.auth.Mint(tokenRec)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200 with bearer, got %d", rec.Code)
		}
	})
}

func TestDashboardEndpoints(t *testing.T) {
	srv, handler := newTestServer(t, &mockReconcileUC{}, "")
	mintRec := httptest.NewRecorder()
	token, err := srv.auth.Mint(mintRec)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	authed := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("plan get 200", func(t *testing.T) {
		if rec := authed(http.MethodGet, "/api/v1/plans/1"); rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})

	t.Run("plan get 404", func(t *testing.T) {
		if rec := authed(http.MethodGet, "/api/v1/plans/999"); rec.Code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", rec.Code)
		}
	})

	t.Run("plan get bad id", func(t *testing.T) {
		if rec := authed(http.MethodGet, "/api/v1/plans/abc"); rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("user billing 200", func(t *testing.T) {
		rec := authed(http.MethodGet, "/api/v1/users/u1/billing")
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d, body=%s", rec.Code, rec.Body.String())
		}
		var body usecase.UserBilling
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	})
}
