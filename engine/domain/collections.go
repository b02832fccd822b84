package domain

import "fmt"

// Collection names a vertex or edge collection in the graph.
type Collection string

// Vertex collections.
const (
	CollCustomer      Collection = "customer"
	CollCountry       Collection = "country"
	CollLocation      Collection = "location"
	CollSeason        Collection = "season"
	CollAddress       Collection = "address"
	CollOrder         Collection = "order"
	CollPaymentMethod Collection = "payment_method"
	CollVehicleType   Collection = "vehicle_type"
)

// Edge collections.
const (
	CollUsesVehicle       Collection = "uses_vehicle"
	CollLocatedIn         Collection = "located_in"
	CollMadeOrder         Collection = "made_order"
	CollVisited           Collection = "visited"
	CollDepartFrom        Collection = "depart_from"
	CollArriveAt          Collection = "arrive_at"
	CollPaymentBy         Collection = "payment_by"
	CollOriginatedFrom    Collection = "originated_from"
	CollOrderFromLocation Collection = "order_from_location"
	CollOrderByCustomer   Collection = "order_by_customer"
	CollFrequentlyVisits  Collection = "frequently_visits"
	CollOrderInSeason     Collection = "order_in_season"
)

// CollectionSpec describes how a collection maps onto the graph.
type CollectionSpec struct {
	Name  Collection
	Label string // node label or relationship type
	Edge  bool
	From  Collection // edges only
	To    Collection // edges only
}

var registry = []CollectionSpec{
	{Name: CollCustomer, Label: "Customer"},
	{Name: CollCountry, Label: "Country"},
	{Name: CollLocation, Label: "Location"},
	{Name: CollSeason, Label: "Season"},
	{Name: CollAddress, Label: "Address"},
	{Name: CollOrder, Label: "Order"},
	{Name: CollPaymentMethod, Label: "PaymentMethod"},
	{Name: CollVehicleType, Label: "VehicleType"},

	{Name: CollUsesVehicle, Label: "USES_VEHICLE", Edge: true, From: CollOrder, To: CollVehicleType},
	{Name: CollLocatedIn, Label: "LOCATED_IN", Edge: true, From: CollLocation, To: CollCountry},
	{Name: CollMadeOrder, Label: "MADE_ORDER", Edge: true, From: CollCustomer, To: CollOrder},
	{Name: CollVisited, Label: "VISITED", Edge: true, From: CollOrder, To: CollLocation},
	{Name: CollDepartFrom, Label: "DEPART_FROM", Edge: true, From: CollOrder, To: CollAddress},
	{Name: CollArriveAt, Label: "ARRIVE_AT", Edge: true, From: CollOrder, To: CollAddress},
	{Name: CollPaymentBy, Label: "PAYMENT_BY", Edge: true, From: CollOrder, To: CollPaymentMethod},
	{Name: CollOriginatedFrom, Label: "ORIGINATED_FROM", Edge: true, From: CollCustomer, To: CollCountry},
	{Name: CollOrderFromLocation, Label: "ORDER_FROM_LOCATION", Edge: true, From: CollOrder, To: CollLocation},
	{Name: CollOrderByCustomer, Label: "ORDER_BY_CUSTOMER", Edge: true, From: CollOrder, To: CollCustomer},
	{Name: CollFrequentlyVisits, Label: "FREQUENTLY_VISITS", Edge: true, From: CollCustomer, To: CollAddress},
	{Name: CollOrderInSeason, Label: "ORDER_IN_SEASON", Edge: true, From: CollOrder, To: CollSeason},
}

var byName = func() map[Collection]CollectionSpec {
	m := make(map[Collection]CollectionSpec, len(registry))
	for _, s := range registry {
		m[s.Name] = s
	}
	return m
}()

// Collections returns every known collection, vertices first.
func Collections() []CollectionSpec {
	out := make([]CollectionSpec, len(registry))
	copy(out, registry)
	return out
}

// LookupCollection resolves a collection by name.
func LookupCollection(name string) (CollectionSpec, error) {
	s, ok := byName[Collection(name)]
	if !ok {
		return CollectionSpec{}, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return s, nil
}

// Spec returns the registry entry for c. Unknown names yield a zero spec.
func (c Collection) Spec() CollectionSpec { return byName[c] }

func (c Collection) String() string { return string(c) }
