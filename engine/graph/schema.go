package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
)

// EnsureSchema creates every registered collection that does not exist yet
// and returns the names it created.
func EnsureSchema(ctx context.Context, s Store, logger *slog.Logger) ([]domain.Collection, error) {
	var created []domain.Collection
	for _, spec := range domain.Collections() {
		ok, err := s.HasCollection(ctx, spec.Name)
		if err != nil {
			return created, fmt.Errorf("check collection %s: %w", spec.Name, err)
		}
		if ok {
			continue
		}
		if err := s.CreateCollection(ctx, spec.Name, spec.Edge); err != nil {
			return created, fmt.Errorf("create collection %s: %w", spec.Name, err)
		}
		logger.Info("collection created", "collection", spec.Name, "edge", spec.Edge)
		created = append(created, spec.Name)
	}
	return created, nil
}

// Seed writes the vehicle type and payment method reference vertices. A
// collection that already holds records is left untouched.
func Seed(ctx context.Context, s Store, logger *slog.Logger) (int, error) {
	var vehicles, payments []domain.Vertex
	for _, id := range domain.SortedKeys(domain.VehicleTypes) {
		vehicles = append(vehicles, domain.VehicleType{ID: id, TypeName: domain.VehicleTypes[id]})
	}
	for _, id := range domain.SortedKeys(domain.PaymentMethods) {
		payments = append(payments, domain.PaymentMethod{ID: id, MethodName: domain.PaymentMethods[id]})
	}

	total := 0
	for _, set := range []struct {
		coll  domain.Collection
		items []domain.Vertex
	}{
		{domain.CollVehicleType, vehicles},
		{domain.CollPaymentMethod, payments},
	} {
		existing, err := s.Query(ctx, set.coll, Filter{Limit: 1})
		if err != nil {
			return total, fmt.Errorf("seed %s: %w", set.coll, err)
		}
		if len(existing) > 0 {
			logger.Info("seed skipped, collection not empty", "collection", set.coll)
			continue
		}
		for _, v := range set.items {
			if _, err := s.UpsertVertex(ctx, v); err != nil {
				return total, fmt.Errorf("seed %s %s: %w", set.coll, v.Key(), err)
			}
			total++
		}
		logger.Info("collection seeded", "collection", set.coll, "count", len(set.items))
	}
	return total, nil
}
