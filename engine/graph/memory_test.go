package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestMemory_UpsertMerges(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.UpsertVertex(ctx, domain.Location{ID: "prg", Name: "Praha", CountryID: "cz"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.UpsertVertex(ctx, domain.Location{ID: "prg", Name: "Prague", CountryID: "cz"}); err != nil {
		t.Fatal(err)
	}
	if m.Len(domain.CollLocation) != 1 {
		t.Fatalf("len = %d", m.Len(domain.CollLocation))
	}
	rows, err := m.Query(ctx, domain.CollLocation, Filter{Where: map[string]any{"key": "prg"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["location_name"] != "Prague" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestMemory_EdgeNeedsEndpoints(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	e := domain.Edge{Kind: domain.CollLocatedIn, From: "prg", To: "cz"}

	if _, err := m.UpsertEdge(ctx, e); !errors.Is(err, ErrEndpointMissing) {
		t.Fatalf("err = %v", err)
	}
	m.UpsertVertex(ctx, domain.Location{ID: "prg", Name: "Prague"})
	if _, err := m.UpsertEdge(ctx, e); !errors.Is(err, ErrEndpointMissing) {
		t.Fatalf("err = %v", err)
	}
	m.UpsertVertex(ctx, domain.Country{ID: "cz", Name: "Czechia"})
	key, err := m.UpsertEdge(ctx, e)
	if err != nil {
		t.Fatal(err)
	}
	if key != e.Key() {
		t.Fatalf("key = %q", key)
	}
	// same identity, same record
	m.UpsertEdge(ctx, e)
	if m.Len(domain.CollLocatedIn) != 1 {
		t.Fatalf("len = %d", m.Len(domain.CollLocatedIn))
	}
}

func TestMemory_QueryFilterAndLimit(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for id, name := range domain.VehicleTypes {
		m.UpsertVertex(ctx, domain.VehicleType{ID: id, TypeName: name})
	}

	rows, _ := m.Query(ctx, domain.CollVehicleType, Filter{Limit: 2})
	if len(rows) != 2 || rows[0]["key"] != "0" || rows[1]["key"] != "1" {
		t.Fatalf("rows = %v", rows)
	}
	rows, _ = m.Query(ctx, domain.CollVehicleType, Filter{Where: map[string]any{"type_name": "van"}})
	if len(rows) != 1 || rows[0]["key"] != "2" {
		t.Fatalf("rows = %v", rows)
	}
	if _, err := m.Query(ctx, "bogus", Filter{}); !errors.Is(err, domain.ErrUnknownCollection) {
		t.Fatalf("err = %v", err)
	}
	if _, err := m.Query(ctx, domain.CollOrder, Filter{Where: map[string]any{"a b": 1}}); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("err = %v", err)
	}
}

func TestMemory_QueryNumericFilter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.UpsertVertex(ctx, domain.Customer{ID: "c", Email: "e", Age: 41})
	rows, _ := m.Query(ctx, domain.CollCustomer, Filter{Where: map[string]any{"age": "41"}})
	if len(rows) != 1 {
		t.Fatalf("rows = %v", rows)
	}
}

func TestEnsureSchema(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if err := m.CreateCollection(ctx, domain.CollOrder, false); err != nil {
		t.Fatal(err)
	}

	created, err := EnsureSchema(ctx, m, discard())
	if err != nil {
		t.Fatal(err)
	}
	if want := len(domain.Collections()) - 1; len(created) != want {
		t.Fatalf("created %d collections, want %d", len(created), want)
	}
	for _, spec := range domain.Collections() {
		ok, _ := m.HasCollection(ctx, spec.Name)
		if !ok {
			t.Errorf("collection %s missing", spec.Name)
		}
	}

	created, err = EnsureSchema(ctx, m, discard())
	if err != nil || len(created) != 0 {
		t.Fatalf("second run created %v, err %v", created, err)
	}
}

type failingStore struct {
	*MemoryStore
}

func (failingStore) HasCollection(context.Context, domain.Collection) (bool, error) {
	return false, errors.New("unreachable")
}

func TestEnsureSchema_Error(t *testing.T) {
	if _, err := EnsureSchema(context.Background(), failingStore{NewMemory()}, discard()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSeed(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	n, err := Seed(ctx, m, discard())
	if err != nil {
		t.Fatal(err)
	}
	if n != len(domain.VehicleTypes)+len(domain.PaymentMethods) {
		t.Fatalf("seeded %d", n)
	}
	rows, _ := m.Query(ctx, domain.CollPaymentMethod, Filter{Where: map[string]any{"key": "0"}})
	if len(rows) != 1 || rows[0]["method_name"] != "cash payment" {
		t.Fatalf("rows = %v", rows)
	}

	n, err = Seed(ctx, m, discard())
	if err != nil || n != 0 {
		t.Fatalf("reseed wrote %d, err %v", n, err)
	}
}
