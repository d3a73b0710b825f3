package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/creperia-pos/api/internal/auth"
	"github.com/creperia-pos/api/internal/catalog"
	"github.com/creperia-pos/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const testSecret = "test-secret"

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// --- Fake CatalogSource ---

type fakeCatalog struct {
	snap       *catalog.Snapshot
	err        error
	refreshes  int
	refreshErr error
}

func (f *fakeCatalog) Get(ctx context.Context) (*catalog.Snapshot, error) {
	return f.snap, f.err
}

func (f *fakeCatalog) Refresh(ctx context.Context) (*catalog.Snapshot, error) {
	f.refreshes++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.snap, nil
}

var errDB = errors.New("connection refused")

func testSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	cats := []catalog.ModifierCategory{
		{Key: "sweet", Name: "Sweet fillings"},
		{Key: "size-free", Name: "Ice", Exclusive: true},
		{Key: "shots", Name: "Extra shots"},
	}
	mods := []catalog.Modifier{
		{ID: "nutella", Name: "Nutella", Group: "sweet", TrackStock: true, CurrentStock: 5},
		{ID: "banana", Name: "Banana", Group: "sweet"},
		{ID: "strawberry", Name: "Strawberry", Group: "sweet", Price: d(5)},
		{ID: "shot", Name: "Espresso shot", Group: "shots", Price: d(7)},
	}
	rules := []catalog.PriceRule{{
		ID:    "rule-sweet",
		Name:  "Sweet crepe",
		Tiers: []catalog.PriceTier{{Count: 1, Price: d(40)}, {Count: 3, Price: d(55)}},
	}}
	groups := []catalog.MenuGroup{
		{ID: "crepes", Name: "Crepes"},
		{
			ID:        "crepe-sweet",
			Name:      "Sweet crepe",
			Level:     1,
			ParentID:  "crepes",
			RulesRef:  "rule-sweet",
			BaseGroup: "sweet",
			Mode:      catalog.ModeScaledIngredient,
		},
		{ID: "drinks", Name: "Drinks"},
	}
	items := []catalog.MenuItem{
		{
			ID:             "latte",
			Name:           "Latte",
			GroupID:        "drinks",
			Price:          d(35),
			Variants:       []catalog.Variant{{ID: "latte-m", Name: "Medium"}, {ID: "latte-l", Name: "Large", PriceAdjustment: d(8)}},
			ModifierGroups: []string{"shots"},
		},
		{ID: "water", Name: "Water", GroupID: "drinks", Price: d(10)},
	}
	snap, err := catalog.NewSnapshot(groups, items, mods, rules, cats)
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	return snap
}

func tokenFor(t *testing.T, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, uuid.MustParse("11111111-1111-1111-1111-111111111111"), "Ana", role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// authed wraps a route registration in the authentication middleware.
func authed(mount string, register func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testSecret))
		r.Route(mount, register)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}
