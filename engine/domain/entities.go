// Package domain defines the input document schema, the graph entity and
// edge types, the collection registry and the sentinel errors shared by the
// extraction and loading stages.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vertex is any entity that becomes a graph node.
type Vertex interface {
	Collection() Collection
	Key() string
	Properties() map[string]any
}

// Customer is keyed by the source document id.
type Customer struct {
	ID          string
	Email       string
	Age         int
	PhoneNumber string
	CountryName string
}

func (c Customer) Collection() Collection { return CollCustomer }
func (c Customer) Key() string            { return c.ID }
func (c Customer) Properties() map[string]any {
	return map[string]any{
		"email":        c.Email,
		"age":          c.Age,
		"phone_number": c.PhoneNumber,
		"country_name": c.CountryName,
	}
}

// Country is keyed by the country-data block id.
type Country struct {
	ID   string
	Name string
}

func (c Country) Collection() Collection { return CollCountry }
func (c Country) Key() string            { return c.ID }
func (c Country) Properties() map[string]any {
	return map[string]any{"country_name": c.Name}
}

// Location is keyed by the location-data block id.
type Location struct {
	ID        string
	Name      string
	CountryID string
}

func (l Location) Collection() Collection { return CollLocation }
func (l Location) Key() string            { return l.ID }
func (l Location) Properties() map[string]any {
	return map[string]any{"location_name": l.Name, "country_id": l.CountryID}
}

// Season is keyed by its label, e.g. "Season-2023".
type Season struct {
	Label string
	Name  string
}

func (s Season) Collection() Collection { return CollSeason }
func (s Season) Key() string            { return s.Label }
func (s Season) Properties() map[string]any {
	return map[string]any{"name": s.Name}
}

// Address is keyed by the address block id. CountryName holds the country
// reference as found in the source.
type Address struct {
	ID          string
	Street      string
	City        string
	State       string
	PostalCode  string
	CountryName string
}

func (a Address) Collection() Collection { return CollAddress }
func (a Address) Key() string            { return a.ID }
func (a Address) Properties() map[string]any {
	return map[string]any{
		"street":       a.Street,
		"city":         a.City,
		"state":        a.State,
		"postal_code":  a.PostalCode,
		"country_name": a.CountryName,
	}
}

// Order is keyed by the per-season-detail order id.
type Order struct {
	ID              string
	TotalPrice      *float64
	PriceType       string
	PotentialFraud  *bool
	PaymentMethodID string
	CreatedAt       time.Time
	DepartureAt     time.Time
}

func (o Order) Collection() Collection { return CollOrder }
func (o Order) Key() string            { return o.ID }
func (o Order) Properties() map[string]any {
	props := map[string]any{
		"order_created_at":  o.CreatedAt,
		"departure_at":      o.DepartureAt,
		"price_type":        o.PriceType,
		"payment_method_id": o.PaymentMethodID,
		"total_price":       nil,
		"potential_fraud":   nil,
	}
	if o.TotalPrice != nil {
		props["total_price"] = *o.TotalPrice
	}
	if o.PotentialFraud != nil {
		props["potential_fraud"] = *o.PotentialFraud
	}
	return props
}

// PaymentMethod is keyed by its numeric id rendered as a string.
type PaymentMethod struct {
	ID         string
	MethodName string
}

func (p PaymentMethod) Collection() Collection { return CollPaymentMethod }
func (p PaymentMethod) Key() string            { return p.ID }
func (p PaymentMethod) Properties() map[string]any {
	return map[string]any{"method_name": p.MethodName}
}

// VehicleType is keyed by an id from the fixed vehicle table.
type VehicleType struct {
	ID       string
	TypeName string
}

func (v VehicleType) Collection() Collection { return CollVehicleType }
func (v VehicleType) Key() string            { return v.ID }
func (v VehicleType) Properties() map[string]any {
	return map[string]any{"type_name": v.TypeName}
}

// Edge discriminator values.
const (
	TypeOriginated   = "originated"
	TypeDestined     = "destined"
	TypeLeadCustomer = "lead_customer"
	TypePassenger    = "passenger"
)

// Edge is a directed, typed link between two entity keys.
type Edge struct {
	Kind Collection
	From string
	To   string
	Type string
}

// Key derives a stable id from the edge's identity so re-runs upsert the
// same relationship.
func (e Edge) Key() string {
	name := string(e.Kind) + "|" + e.From + "|" + e.To + "|" + e.Type
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Properties are the attributes stored on the relationship.
func (e Edge) Properties() map[string]any {
	props := map[string]any{"from": e.From, "to": e.To}
	if e.Type != "" {
		props["type"] = e.Type
	}
	return props
}
