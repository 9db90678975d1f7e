package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fairyhunter13/cart-service-simulator/internal/catalog"
	"github.com/fairyhunter13/cart-service-simulator/internal/config"
	httpapi "github.com/fairyhunter13/cart-service-simulator/internal/http"
	"github.com/fairyhunter13/cart-service-simulator/internal/obs"
	"github.com/fairyhunter13/cart-service-simulator/internal/persist"
	"github.com/fairyhunter13/cart-service-simulator/internal/session"
)

type stack struct {
	writer *persist.Writer
	mux    http.Handler
	cancel context.CancelFunc
}

func newStack(t *testing.T, dir string) *stack {
	t.Helper()
	t.Setenv("TAX_RATE", "")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "")
	t.Setenv("STANDARD_SHIPPING_FEE", "")
	t.Setenv("UNDER_MIN_QTY_POLICY", "")
	cfg := config.Load()
	obs.InitLogger()
	w := persist.NewWriter(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	sessions := session.NewManager(cfg, w, func(slot string) persist.Adapter {
		return persist.NewFileAdapter(dir, slot)
	})
	cat := catalog.New()
	cat.SeedDemo()
	app := httpapi.NewApp(cfg, cat, sessions, w)
	return &stack{writer: w, mux: httpapi.NewRouter(app), cancel: cancel}
}

func (s *stack) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}

func (s *stack) shutdown() {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.writer.DrainUntil(ctx)
}

func (s *stack) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !s.writer.DrainUntil(ctx) {
		t.Fatalf("drain timeout")
	}
}

func TestIntegration_FullCartFlow(t *testing.T) {
	s := newStack(t, t.TempDir())
	defer s.shutdown()

	if rr := s.do(t, http.MethodPost, "/carts/flow/items",
		`{"product_id":"tee-classic","size":"M","color":"red","quantity":2}`); rr.Code != http.StatusOK {
		t.Fatalf("add: %d %s", rr.Code, rr.Body.String())
	}
	if rr := s.do(t, http.MethodPost, "/carts/flow/items",
		`{"product_id":"hoodie-zip","size":"L","color":"navy"}`); rr.Code != http.StatusOK {
		t.Fatalf("add hoodie: %d", rr.Code)
	}
	if rr := s.do(t, http.MethodPut, "/carts/flow/items",
		`{"product_id":"hoodie-zip","size":"L","color":"navy","quantity":2}`); rr.Code != http.StatusOK {
		t.Fatalf("update: %d", rr.Code)
	}
	if rr := s.do(t, http.MethodDelete, "/carts/flow/items",
		`{"product_id":"tee-classic","size":"M","color":"red"}`); rr.Code != http.StatusOK {
		t.Fatalf("remove: %d", rr.Code)
	}

	rr := s.do(t, http.MethodGet, "/carts/flow/summary", "")
	var sum struct {
		ItemCount int    `json:"item_count"`
		Subtotal  string `json:"subtotal"`
		Total     string `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	// 2 x 49.95 = 99.90 -> shipping 9.99, tax 7.992 -> 7.99
	if sum.ItemCount != 2 || sum.Subtotal != "99.9" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
	if sum.Total != "117.88" {
		t.Fatalf("expected total 117.88, got %s", sum.Total)
	}

	co := s.do(t, http.MethodPost, "/carts/flow/checkout", "")
	if co.Code != http.StatusOK {
		t.Fatalf("checkout: %d %s", co.Code, co.Body.String())
	}
	after := s.do(t, http.MethodGet, "/carts/flow", "")
	var view struct {
		Items []any `json:"items"`
	}
	if err := json.Unmarshal(after.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected empty cart after checkout")
	}
}

func TestIntegration_CartSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	s1 := newStack(t, dir)
	if rr := s1.do(t, http.MethodPost, "/carts/durable/items",
		`{"product_id":"cap-baseball","size":"one-size","color":"green","quantity":4}`); rr.Code != http.StatusOK {
		t.Fatalf("add: %d", rr.Code)
	}
	s1.drain(t)
	s1.shutdown()

	s2 := newStack(t, dir)
	defer s2.shutdown()
	rr := s2.do(t, http.MethodGet, "/carts/durable", "")
	var view struct {
		Items []struct {
			ProductID string `json:"product_id"`
			Quantity  int    `json:"quantity"`
			UnitPrice string `json:"unit_price"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 4 {
		t.Fatalf("expected rehydrated cart, got %+v", view.Items)
	}
	if view.Items[0].UnitPrice != "14.5" {
		t.Fatalf("expected snapshot price 14.5, got %s", view.Items[0].UnitPrice)
	}
}

func TestIntegration_CartsAreIsolated(t *testing.T) {
	s := newStack(t, t.TempDir())
	defer s.shutdown()
	s.do(t, http.MethodPost, "/carts/alice/items",
		`{"product_id":"tee-classic","size":"M","color":"red"}`)
	rr := s.do(t, http.MethodGet, "/carts/bob", "")
	var view struct {
		Items []any `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("carts must be isolated, bob has %d items", len(view.Items))
	}
}
