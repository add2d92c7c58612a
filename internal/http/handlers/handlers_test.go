// README: Tests for route-level authorization and error mapping.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"mealmesh/internal/http/handlers"
	httpmiddleware "mealmesh/internal/http/middleware"
	"mealmesh/internal/infra"
	"mealmesh/internal/modules/mealslot"
	"mealmesh/internal/modules/order"
	"mealmesh/internal/types"
)

// stubTokenVerifier is a test double for infra.TokenVerifier.
type stubTokenVerifier struct {
	claims *infra.Claims
	err    error
}

func (s *stubTokenVerifier) Verify(_ string) (*infra.Claims, error) {
	return s.claims, s.err
}

func makeVerifier(id string, role types.Role) *stubTokenVerifier {
	return &stubTokenVerifier{claims: &infra.Claims{UserID: types.ID(id), Role: role}}
}

// memSlotStore is an in-memory mealslot.SlotStore.
type memSlotStore struct {
	slots map[types.ID]*mealslot.MealSlot
}

func newMemSlotStore() *memSlotStore {
	return &memSlotStore{slots: make(map[types.ID]*mealslot.MealSlot)}
}

func (m *memSlotStore) Create(_ context.Context, s *mealslot.MealSlot) error {
	cp := *s
	m.slots[s.ID] = &cp
	return nil
}

func (m *memSlotStore) Get(_ context.Context, id types.ID) (*mealslot.MealSlot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, mealslot.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSlotStore) ListByVendor(_ context.Context, vendorID types.ID, activeOnly bool) ([]mealslot.MealSlot, error) {
	var out []mealslot.MealSlot
	for _, s := range m.slots {
		if s.VendorID != vendorID {
			continue
		}
		if activeOnly && !s.IsActive {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *memSlotStore) Deactivate(_ context.Context, id types.ID) error {
	s, ok := m.slots[id]
	if !ok {
		return mealslot.ErrNotFound
	}
	s.IsActive = false
	return nil
}

// buildRouter wires a minimal gin engine with auth and the handlers under test.
// The order service gets nil deps; the routes exercised here reject before any
// service dependency is touched.
func buildRouter(verifier infra.TokenVerifier, slotStore mealslot.SlotStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpmiddleware.Auth(verifier))

	orderSvc := order.NewService(nil, nil, nil, nil, nil, nil, order.Config{})
	oh := handlers.NewOrderHandler(orderSvc)
	r.POST("/api/orders", oh.Create)
	r.POST("/api/orders/:id/status", oh.Transition)

	sh := handlers.NewMealSlotHandler(mealslot.NewService(slotStore))
	r.GET("/api/vendors/:id/meal-slots", sh.ListByVendor)
	r.POST("/api/vendors/:id/meal-slots", sh.Create)
	r.GET("/api/meal-slots/:id/windows", sh.DeliveryWindows)
	r.DELETE("/api/meal-slots/:id", sh.Deactivate)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateOrder_Unauthenticated(t *testing.T) {
	r := buildRouter(&stubTokenVerifier{err: infra.ErrInvalidToken}, newMemSlotStore())
	w := doRequest(r, http.MethodPost, "/api/orders", map[string]any{"vendor_id": "v1"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestCreateOrder_VendorRoleRejected(t *testing.T) {
	r := buildRouter(makeVerifier("v1", types.RoleVendor), newMemSlotStore())
	w := doRequest(r, http.MethodPost, "/api/orders", map[string]any{"vendor_id": "v1"})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestTransition_MissingStatus(t *testing.T) {
	r := buildRouter(makeVerifier("u1", types.RoleCustomer), newMemSlotStore())
	w := doRequest(r, http.MethodPost, "/api/orders/o1/status", map[string]any{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestMealSlots_ListActiveOnly(t *testing.T) {
	store := newMemSlotStore()
	r := buildRouter(makeVerifier("u1", types.RoleCustomer), store)

	seed := func(id string, active bool) {
		slot := &mealslot.MealSlot{ID: types.ID(id), VendorID: "v1", Name: id, IsActive: active}
		_ = store.Create(context.Background(), slot)
	}
	seed("lunch", true)
	seed("retired", false)

	w := doRequest(r, http.MethodGet, "/api/vendors/v1/meal-slots", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "lunch") || strings.Contains(body, "retired") {
		t.Errorf("active-only listing wrong: %s", body)
	}

	w = doRequest(r, http.MethodGet, "/api/vendors/v1/meal-slots?all=1", nil)
	if !strings.Contains(w.Body.String(), "retired") {
		t.Errorf("all=1 should include inactive slots")
	}
}

func TestMealSlotCreate_ForeignVendorRejected(t *testing.T) {
	r := buildRouter(makeVerifier("v2", types.RoleVendor), newMemSlotStore())
	w := doRequest(r, http.MethodPost, "/api/vendors/v1/meal-slots", map[string]any{
		"name": "lunch", "start": "12:00", "end": "14:00", "cutoff": "10:00", "window_minutes": 30,
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestMealSlotCreate_InvalidConfiguration(t *testing.T) {
	r := buildRouter(makeVerifier("v1", types.RoleVendor), newMemSlotStore())
	w := doRequest(r, http.MethodPost, "/api/vendors/v1/meal-slots", map[string]any{
		"name": "lunch", "start": "12:00", "end": "14:00", "cutoff": "13:00", "window_minutes": 30,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestDeliveryWindows_Enumerates(t *testing.T) {
	store := newMemSlotStore()
	r := buildRouter(makeVerifier("v1", types.RoleVendor), store)

	w := doRequest(r, http.MethodPost, "/api/vendors/v1/meal-slots", map[string]any{
		"name": "lunch", "start": "12:00", "end": "14:00", "cutoff": "10:00", "window_minutes": 30,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	w = doRequest(r, http.MethodGet, "/api/meal-slots/"+created.ID+"/windows", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Windows []struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"windows"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Windows) != 4 {
		t.Fatalf("windows = %d, want 4", len(resp.Windows))
	}
	if resp.Windows[0].Start != "12:00" || resp.Windows[3].End != "14:00" {
		t.Errorf("window bounds wrong: %+v", resp.Windows)
	}
}

func TestWindows_UnknownSlot(t *testing.T) {
	r := buildRouter(makeVerifier("u1", types.RoleCustomer), newMemSlotStore())
	w := doRequest(r, http.MethodGet, "/api/meal-slots/nope/windows", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
