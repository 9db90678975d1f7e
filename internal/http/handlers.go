package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/cart-service-simulator/internal/cart"
	"github.com/fairyhunter13/cart-service-simulator/internal/catalog"
	"github.com/fairyhunter13/cart-service-simulator/internal/config"
	httpopenapi "github.com/fairyhunter13/cart-service-simulator/internal/http/openapi"
	"github.com/fairyhunter13/cart-service-simulator/internal/model"
	"github.com/fairyhunter13/cart-service-simulator/internal/obs"
	"github.com/fairyhunter13/cart-service-simulator/internal/persist"
	"github.com/fairyhunter13/cart-service-simulator/internal/pricing"
	"github.com/fairyhunter13/cart-service-simulator/internal/session"
)

type App struct {
	Cfg      config.Config
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Policy   pricing.Policy
	Writer   *persist.Writer
	closing  bool
	started  time.Time
}

func NewApp(cfg config.Config, cat *catalog.Catalog, sessions *session.Manager, w *persist.Writer) *App {
	return &App{
		Cfg:      cfg,
		Catalog:  cat,
		Sessions: sessions,
		Policy:   pricing.NewPolicy(cfg),
		Writer:   w,
		started:  time.Now(),
	}
}

func (a *App) StartShutdown() {
	a.closing = true
	a.Writer.CloseIntake()
}

type lineItemView struct {
	model.LineItem
	LineTotal decimal.Decimal `json:"line_total"`
}

type cartView struct {
	CartID  string             `json:"cart_id"`
	Items   []lineItemView     `json:"items"`
	Summary model.OrderSummary `json:"summary"`
}

func (a *App) viewOf(cartID string, items []model.LineItem) cartView {
	views := make([]lineItemView, 0, len(items))
	for _, it := range items {
		views = append(views, lineItemView{LineItem: it, LineTotal: it.LineTotal().Round(2)})
	}
	return cartView{CartID: cartID, Items: views, Summary: a.Policy.Summarize(items).Rounded()}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		WriteJSONError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// productsHandler serves the catalog collection: GET lists, POST creates.
func (a *App) productsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, a.Catalog.List())
	case http.MethodPost:
		if a.closing {
			WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
			return
		}
		var p model.Product
		if !decodeJSON(w, r, &p) {
			return
		}
		if err := a.Catalog.Upsert(p); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		obs.Logger.Info("product_upserted", "product_id", p.ProductID, "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusCreated, p)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

// productHandler serves a single catalog entry: GET, PUT, DELETE.
func (a *App) productHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/products/")
	if id == "" || strings.Contains(id, "/") {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := a.Catalog.Get(id)
		if err != nil {
			WriteJSONError(w, http.StatusNotFound, "product_not_found", "")
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var p model.Product
		if !decodeJSON(w, r, &p) {
			return
		}
		p.ProductID = id
		if err := a.Catalog.Upsert(p); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := a.Catalog.Delete(id); err != nil {
			WriteJSONError(w, http.StatusNotFound, "product_not_found", "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  *int   `json:"quantity,omitempty"`
}

type updateItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

type removeItemRequest struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// cartsHandler dispatches /carts/{id} and its sub-resources.
func (a *App) cartsHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/carts/")
	cartID, sub, _ := strings.Cut(rest, "/")
	if cartID == "" {
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
		return
	}
	switch sub {
	case "":
		a.getCart(w, r, cartID)
	case "summary":
		a.getSummary(w, r, cartID)
	case "items":
		a.cartItems(w, r, cartID)
	case "clear":
		a.clearCart(w, r, cartID)
	case "checkout":
		a.checkout(w, r, cartID)
	default:
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	}
}

func (a *App) getCart(w http.ResponseWriter, r *http.Request, cartID string) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	s := a.Sessions.Get(cartID)
	writeJSON(w, http.StatusOK, a.viewOf(cartID, s.Items()))
}

func (a *App) getSummary(w http.ResponseWriter, r *http.Request, cartID string) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	s := a.Sessions.Get(cartID)
	writeJSON(w, http.StatusOK, a.Policy.Summarize(s.Items()).Rounded())
}

func (a *App) rejectWhenClosing(w http.ResponseWriter) bool {
	if a.closing || a.Writer.IsShuttingDown() {
		WriteJSONError(w, http.StatusServiceUnavailable, "shutting_down", "")
		return true
	}
	return false
}

func (a *App) cartItems(w http.ResponseWriter, r *http.Request, cartID string) {
	if a.rejectWhenClosing(w) {
		return
	}
	switch r.Method {
	case http.MethodPost:
		a.addItem(w, r, cartID)
	case http.MethodPut:
		a.updateItem(w, r, cartID)
	case http.MethodDelete:
		a.removeItem(w, r, cartID)
	default:
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	}
}

func variantOffered(p model.Product, size, color string) bool {
	contains := func(opts []string, v string) bool {
		if len(opts) == 0 {
			return true
		}
		for _, o := range opts {
			if o == v {
				return true
			}
		}
		return false
	}
	return contains(p.Sizes, size) && contains(p.Colors, color)
}

func (a *App) addItem(w http.ResponseWriter, r *http.Request, cartID string) {
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	p, err := a.Catalog.Get(req.ProductID)
	if err != nil {
		WriteJSONError(w, http.StatusNotFound, "product_not_found", "")
		return
	}
	if !variantOffered(p, req.Size, req.Color) {
		WriteJSONError(w, http.StatusBadRequest, "invalid_variant", "size or color not offered for this product")
		return
	}
	s := a.Sessions.Get(cartID)
	item := model.LineItem{
		ProductID: p.ProductID,
		Size:      req.Size,
		Color:     req.Color,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		UnitPrice: p.Price,
		Quantity:  qty,
	}
	if err := s.Add(item); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		return
	}
	obs.Logger.Info("cart_item_added",
		"cart_id", cartID,
		"product_id", p.ProductID,
		"variant", item.VariantKey(),
		"quantity", qty,
		"request_id", RequestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, a.viewOf(cartID, s.Items()))
}

func (a *App) updateItem(w http.ResponseWriter, r *http.Request, cartID string) {
	var req updateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}
	s := a.Sessions.Get(cartID)
	err := s.UpdateQuantity(req.ProductID, req.Size, req.Color, req.Quantity)
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		WriteJSONError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
		return
	case errors.Is(err, cart.ErrItemNotFound):
		WriteJSONError(w, http.StatusNotFound, "item_not_found", "")
		return
	case err != nil:
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	obs.Logger.Info("cart_quantity_updated",
		"cart_id", cartID,
		"product_id", req.ProductID,
		"quantity", req.Quantity,
		"request_id", RequestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, a.viewOf(cartID, s.Items()))
}

func (a *App) removeItem(w http.ResponseWriter, r *http.Request, cartID string) {
	var req removeItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		WriteJSONError(w, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}
	s := a.Sessions.Get(cartID)
	s.Remove(req.ProductID, req.Size, req.Color)
	obs.Logger.Info("cart_item_removed",
		"cart_id", cartID,
		"product_id", req.ProductID,
		"request_id", RequestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, a.viewOf(cartID, s.Items()))
}

func (a *App) clearCart(w http.ResponseWriter, r *http.Request, cartID string) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if a.rejectWhenClosing(w) {
		return
	}
	s := a.Sessions.Get(cartID)
	s.Clear()
	obs.Logger.Info("cart_cleared", "cart_id", cartID, "request_id", RequestIDFromContext(r.Context()))
	writeJSON(w, http.StatusOK, a.viewOf(cartID, nil))
}

// checkout hands over the final order snapshot and clears the cart. Payment
// and order persistence belong to the downstream order service.
func (a *App) checkout(w http.ResponseWriter, r *http.Request, cartID string) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	if a.rejectWhenClosing(w) {
		return
	}
	s := a.Sessions.Get(cartID)
	items := s.Items()
	if len(items) == 0 {
		WriteJSONError(w, http.StatusConflict, "cart_empty", "cannot check out an empty cart")
		return
	}
	order := model.Order{
		OrderID:  uuid.NewString(),
		CartID:   cartID,
		Items:    items,
		Summary:  a.Policy.Summarize(items).Rounded(),
		PlacedAt: time.Now().UTC(),
	}
	s.Clear()
	obs.Logger.Info("order_placed",
		"order_id", order.OrderID,
		"cart_id", cartID,
		"item_count", order.Summary.ItemCount,
		"total", order.Summary.Total.String(),
		"request_id", RequestIDFromContext(r.Context()),
	)
	writeJSON(w, http.StatusOK, order)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	enq, written, failed, pending := a.Writer.Metrics()
	m := map[string]any{
		"snapshots_enqueued": enq,
		"snapshots_written":  written,
		"snapshots_failed":   failed,
		"snapshots_pending":  pending,
		"carts_active":       a.Sessions.ActiveCount(),
		"products":           a.Catalog.Len(),
		"uptime_sec":         time.Since(a.started).Seconds(),
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}
