package extract

import (
	"errors"
	"fmt"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
	"github.com/WessleyAI/daytrip-loader/pkg/fn"
)

// Entities holds the output of every entity extractor for one document.
type Entities struct {
	Customers      Result[domain.Customer]
	Countries      Result[domain.Country]
	Locations      Result[domain.Location]
	Seasons        Result[domain.Season]
	Addresses      Result[domain.Address]
	Orders         Result[domain.Order]
	PaymentMethods Result[domain.PaymentMethod]
	VehicleTypes   Result[domain.VehicleType]
}

// ExtractEntities runs all entity extractors. They are independent of each
// other.
func ExtractEntities(doc *domain.Document) Entities {
	return Entities{
		Customers:      Customers(doc),
		Countries:      Countries(doc),
		Locations:      Locations(doc),
		Seasons:        Seasons(doc),
		Addresses:      Addresses(doc),
		Orders:         Orders(doc),
		PaymentMethods: PaymentMethods(doc),
		VehicleTypes:   VehicleTypes(doc),
	}
}

// Vertices flattens every validated entity in persistence order.
func (e Entities) Vertices() []domain.Vertex {
	var out []domain.Vertex
	out = append(out, vertices(e.Customers.Valid)...)
	out = append(out, vertices(e.Countries.Valid)...)
	out = append(out, vertices(e.Locations.Valid)...)
	out = append(out, vertices(e.Seasons.Valid)...)
	out = append(out, vertices(e.Addresses.Valid)...)
	out = append(out, vertices(e.Orders.Valid)...)
	out = append(out, vertices(e.PaymentMethods.Valid)...)
	out = append(out, vertices(e.VehicleTypes.Valid)...)
	return out
}

// Rejections flattens every entity rejection.
func (e Entities) Rejections() []domain.Rejection {
	var out []domain.Rejection
	for _, r := range [][]domain.Rejection{
		e.Customers.Rejected, e.Countries.Rejected, e.Locations.Rejected, e.Seasons.Rejected,
		e.Addresses.Rejected, e.Orders.Rejected, e.PaymentMethods.Rejected, e.VehicleTypes.Rejected,
	} {
		out = append(out, r...)
	}
	return out
}

func vertices[T domain.Vertex](items []T) []domain.Vertex {
	return fn.Map(items, func(v T) domain.Vertex { return v })
}

func missing(kind domain.Collection, key, detail string) domain.Rejection {
	return domain.Rejection{Kind: kind, Key: key, Err: domain.ErrMissingFields, Detail: detail}
}

// Customers extracts the document's own customer and every passenger listed
// on its orders.
func Customers(doc *domain.Document) Result[domain.Customer] {
	c := newCollector[domain.Customer]()
	add := func(b domain.CustomerBlock, src string) {
		if b.ID == "" || b.Email == "" {
			c.reject(missing(domain.CollCustomer, b.ID.String(), src))
			return
		}
		c.accept(domain.Customer{
			ID:          b.ID.String(),
			Email:       b.Email.String(),
			Age:         b.Age.Value,
			PhoneNumber: b.PhoneNumber.String(),
			CountryName: b.CountryName.String(),
		})
	}

	add(doc.CustomerBlock, "document")
	for _, ref := range doc.Orders() {
		for _, p := range ref.Detail.Passengers {
			add(p, "passenger of order "+ref.Detail.OrderID.String())
		}
	}
	return c.result()
}

// Countries extracts countryData, originCountryData and
// destinationCountryData independently.
func Countries(doc *domain.Document) Result[domain.Country] {
	c := newCollector[domain.Country]()
	for _, occ := range doc.CountryBlocks() {
		if occ.Block.ID == "" || occ.Block.EnglishName == "" {
			c.reject(missing(domain.CollCountry, occ.Block.ID.String(), occ.Source))
			continue
		}
		c.accept(domain.Country{ID: occ.Block.ID.String(), Name: occ.Block.EnglishName.String()})
	}
	return c.result()
}

// Locations extracts every origin and destination location block.
func Locations(doc *domain.Document) Result[domain.Location] {
	c := newCollector[domain.Location]()
	for _, occ := range doc.LocationBlocks() {
		b := occ.Block
		if b.ID == "" || b.Name == "" {
			c.reject(missing(domain.CollLocation, b.ID.String(), occ.Source))
			continue
		}
		c.accept(domain.Location{ID: b.ID.String(), Name: b.Name.String(), CountryID: b.CountryID.String()})
	}
	return c.result()
}

// Seasons derives one season per label; the name is the label's year segment.
func Seasons(doc *domain.Document) Result[domain.Season] {
	c := newCollector[domain.Season]()
	for _, label := range doc.SeasonLabels() {
		name, err := domain.ParseSeasonLabel(label)
		if err != nil {
			c.reject(domain.Rejection{Kind: domain.CollSeason, Key: label, Err: domain.ErrInvalidSeasonLabel})
			continue
		}
		c.accept(domain.Season{Label: label, Name: name})
	}
	return c.result()
}

// Addresses extracts the address nested in each location block. Location
// blocks without an address contribute nothing.
func Addresses(doc *domain.Document) Result[domain.Address] {
	c := newCollector[domain.Address]()
	for _, occ := range doc.LocationBlocks() {
		a := occ.Block.Address
		if a == nil {
			continue
		}
		if a.ID == "" || a.City == "" || a.CountryID == "" {
			c.reject(missing(domain.CollAddress, a.ID.String(), occ.Source+".address"))
			continue
		}
		c.accept(domain.Address{
			ID:          a.ID.String(),
			Street:      a.Street.String(),
			City:        a.City.String(),
			State:       a.State.String(),
			PostalCode:  a.PostalCode.String(),
			CountryName: a.CountryID.String(),
		})
	}
	return c.result()
}

// Orders extracts one order per season detail. Both timestamps must be
// present and parse; total price is optional.
func Orders(doc *domain.Document) Result[domain.Order] {
	c := newCollector[domain.Order]()
	for _, ref := range doc.Orders() {
		o, err := order(ref.Detail)
		if err != nil {
			rej := domain.Rejection{Kind: domain.CollOrder, Key: ref.Detail.OrderID.String(), Err: domain.ErrMissingFields}
			if errors.Is(err, domain.ErrInvalidTimestamp) {
				rej.Err = domain.ErrInvalidTimestamp
			}
			rej.Detail = err.Error()
			c.reject(rej)
			continue
		}
		c.accept(o)
	}
	return c.result()
}

func order(d *domain.OrderDetail) (domain.Order, error) {
	if d.OrderID == "" || d.OrderCreatedAt == "" || d.DepartureAt == "" {
		return domain.Order{}, fmt.Errorf("%w: orderId, orderCreatedAt and departureAt are required", domain.ErrMissingFields)
	}
	created, err := domain.ParseTimestamp(d.OrderCreatedAt.String())
	if err != nil {
		return domain.Order{}, fmt.Errorf("orderCreatedAt: %w", err)
	}
	departure, err := domain.ParseTimestamp(d.DepartureAt.String())
	if err != nil {
		return domain.Order{}, fmt.Errorf("departureAt: %w", err)
	}
	o := domain.Order{
		ID:             d.OrderID.String(),
		TotalPrice:     d.TotalPrice.Ptr(),
		PriceType:      d.PriceType.String(),
		PotentialFraud: d.PotentialFraud.Ptr(),
		CreatedAt:      created,
		DepartureAt:    departure,
	}
	if d.PaymentMethod != nil {
		o.PaymentMethodID = d.PaymentMethod.String()
	}
	return o, nil
}

// PaymentMethods extracts the scalar payment method id of each order. An
// order without the field contributes nothing; an empty id is rejected.
func PaymentMethods(doc *domain.Document) Result[domain.PaymentMethod] {
	c := newCollector[domain.PaymentMethod]()
	for _, ref := range doc.Orders() {
		pm := ref.Detail.PaymentMethod
		if pm == nil {
			continue
		}
		if *pm == "" {
			c.reject(missing(domain.CollPaymentMethod, "", "order "+ref.Detail.OrderID.String()))
			continue
		}
		name, ok := domain.PaymentMethods[pm.String()]
		if !ok {
			name = pm.String()
		}
		c.accept(domain.PaymentMethod{ID: pm.String(), MethodName: name})
	}
	return c.result()
}

// VehicleTypes resolves every vehicle id on every order through the fixed
// vehicle table.
func VehicleTypes(doc *domain.Document) Result[domain.VehicleType] {
	c := newCollector[domain.VehicleType]()
	for _, ref := range doc.Orders() {
		for _, id := range ref.Detail.Vehicles {
			name, ok := domain.VehicleTypes[id.String()]
			if !ok {
				c.reject(domain.Rejection{
					Kind:   domain.CollVehicleType,
					Key:    id.String(),
					Err:    domain.ErrInvalidVehicleType,
					Detail: "order " + ref.Detail.OrderID.String(),
				})
				continue
			}
			c.accept(domain.VehicleType{ID: id.String(), TypeName: name})
		}
	}
	return c.result()
}
