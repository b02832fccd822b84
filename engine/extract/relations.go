package extract

import (
	"github.com/WessleyAI/daytrip-loader/engine/domain"
	"github.com/WessleyAI/daytrip-loader/pkg/fn"
)

// FrequentVisitThreshold is the number of orders arriving at the same
// address that makes the lead customer a frequent visitor.
const FrequentVisitThreshold = 2

// Relations holds the output of every relationship extractor for one
// document.
type Relations struct {
	UsesVehicle       Result[domain.Edge]
	LocatedIn         Result[domain.Edge]
	MadeOrder         Result[domain.Edge]
	Visited           Result[domain.Edge]
	DepartFrom        Result[domain.Edge]
	ArriveAt          Result[domain.Edge]
	PaymentBy         Result[domain.Edge]
	OriginatedFrom    Result[domain.Edge]
	OrderFromLocation Result[domain.Edge]
	OrderByCustomer   Result[domain.Edge]
	OrderInSeason     Result[domain.Edge]
	FrequentlyVisits  Result[domain.Edge]
}

// ExtractRelations runs all relationship extractors against the index built
// from the same document's entities.
func ExtractRelations(doc *domain.Document, ix *Index) Relations {
	depart, arrive := DepartArrive(doc, ix)
	return Relations{
		UsesVehicle:       UsesVehicle(doc, ix),
		LocatedIn:         LocatedIn(doc, ix),
		MadeOrder:         MadeOrder(doc, ix),
		Visited:           Visited(doc, ix),
		DepartFrom:        depart,
		ArriveAt:          arrive,
		PaymentBy:         PaymentBy(doc, ix),
		OriginatedFrom:    OriginatedFrom(ix),
		OrderFromLocation: OrderFromLocation(doc, ix),
		OrderByCustomer:   OrderByCustomer(doc, ix),
		OrderInSeason:     OrderInSeason(doc, ix),
		FrequentlyVisits:  FrequentlyVisits(doc, ix),
	}
}

func (r Relations) all() []Result[domain.Edge] {
	return []Result[domain.Edge]{
		r.UsesVehicle, r.LocatedIn, r.MadeOrder, r.Visited, r.DepartFrom, r.ArriveAt,
		r.PaymentBy, r.OriginatedFrom, r.OrderFromLocation, r.OrderByCustomer,
		r.OrderInSeason, r.FrequentlyVisits,
	}
}

// Edges flattens every validated edge.
func (r Relations) Edges() []domain.Edge {
	return fn.FlatMap(r.all(), func(res Result[domain.Edge]) []domain.Edge { return res.Valid })
}

// Rejections flattens every edge rejection.
func (r Relations) Rejections() []domain.Rejection {
	return fn.FlatMap(r.all(), func(res Result[domain.Edge]) []domain.Rejection { return res.Rejected })
}

// linker builds edges of one collection, checking both endpoints against
// the index.
type linker struct {
	kind domain.Collection
	spec domain.CollectionSpec
	ix   *Index
	c    *collector[domain.Edge]
}

func newLinker(kind domain.Collection, ix *Index) *linker {
	return &linker{kind: kind, spec: kind.Spec(), ix: ix, c: newCollector[domain.Edge]()}
}

func (l *linker) link(from, to, typ string) {
	if !l.ix.Has(l.spec.From, from) || !l.ix.Has(l.spec.To, to) {
		l.c.reject(domain.Rejection{
			Kind: l.kind,
			Key:  from,
			Ref:  to,
			Err:  domain.ErrEntitiesNotValidated,
		})
		return
	}
	l.c.accept(domain.Edge{Kind: l.kind, From: from, To: to, Type: typ})
}

func (l *linker) result() Result[domain.Edge] { return l.c.result() }

func blockID(b *domain.LocationBlock) string {
	if b == nil {
		return ""
	}
	return b.ID.String()
}

func addressID(b *domain.LocationBlock) string {
	if b == nil || b.Address == nil {
		return ""
	}
	return b.Address.ID.String()
}

// UsesVehicle links each order to every vehicle type it lists.
func UsesVehicle(doc *domain.Document, ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollUsesVehicle, ix)
	for _, ref := range doc.Orders() {
		for _, v := range ref.Detail.Vehicles {
			l.link(ref.Detail.OrderID.String(), v.String(), "")
		}
	}
	return l.result()
}

// LocatedIn links each location block to its country.
func LocatedIn(doc *domain.Document, ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollLocatedIn, ix)
	for _, occ := range doc.LocationBlocks() {
		l.link(occ.Block.ID.String(), occ.Block.CountryID.String(), "")
	}
	return l.result()
}

// MadeOrder links each order's lead customer to the order.
func MadeOrder(doc *domain.Document, ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollMadeOrder, ix)
	for _, ref := range doc.Orders() {
		l.link(doc.LeadCustomer(ref.Detail), ref.Detail.OrderID.String(), "")
	}
	return l.result()
}

// Visited links each order to its origin and destination locations.
func Visited(doc *domain.Document, ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollVisited, ix)
	for _, ref := range doc.Orders() {
		origin, dest := doc.LocationsFor(ref.Detail)
		for _, b := range []*domain.LocationBlock{origin, dest} {
			if b != nil {
				l.link(ref.Detail.OrderID.String(), blockID(b), "")
			}
		}
	}
	return l.result()
}

// DepartArrive walks the order addresses once and returns the DepartFrom
// and ArriveAt edges as independent results.
func DepartArrive(doc *domain.Document, ix *Index) (depart, arrive Result[domain.Edge]) {
	dl := newLinker(domain.CollDepartFrom, ix)
	al := newLinker(domain.CollArriveAt, ix)
	for _, ref := range doc.Orders() {
		origin, dest := doc.LocationsFor(ref.Detail)
		id := ref.Detail.OrderID.String()
		if a := addressID(origin); a != "" {
			dl.link(id, a, "")
		}
		if a := addressID(dest); a != "" {
			al.link(id, a, "")
		}
	}
	return dl.result(), al.result()
}

// PaymentBy links each order to the payment method it names.
func PaymentBy(doc *domain.Document, ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollPaymentBy, ix)
	for _, ref := range doc.Orders() {
		if pm := ref.Detail.PaymentMethod; pm != nil {
			l.link(ref.Detail.OrderID.String(), pm.String(), "")
		}
	}
	return l.result()
}

// OriginatedFrom links each validated customer to the country named by its
// countryName. Customers without a country name produce nothing.
func OriginatedFrom(ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollOriginatedFrom, ix)
	for _, c := range ix.Customers() {
		if c.CountryName == "" {
			continue
		}
		country, _ := ix.CountryKey(c.CountryName)
		l.link(c.ID, country, "")
	}
	return l.result()
}

// OrderFromLocation links each order to its origin ("originated") and
// destination ("destined") locations.
func OrderFromLocation(doc *domain.Document, ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollOrderFromLocation, ix)
	for _, ref := range doc.Orders() {
		origin, dest := doc.LocationsFor(ref.Detail)
		id := ref.Detail.OrderID.String()
		if origin != nil {
			l.link(id, blockID(origin), domain.TypeOriginated)
		}
		if dest != nil {
			l.link(id, blockID(dest), domain.TypeDestined)
		}
	}
	return l.result()
}

// OrderByCustomer links each order to its lead customer and passengers.
func OrderByCustomer(doc *domain.Document, ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollOrderByCustomer, ix)
	for _, ref := range doc.Orders() {
		id := ref.Detail.OrderID.String()
		l.link(id, doc.LeadCustomer(ref.Detail), domain.TypeLeadCustomer)
		for _, p := range ref.Detail.Passengers {
			l.link(id, p.ID.String(), domain.TypePassenger)
		}
	}
	return l.result()
}

// OrderInSeason links each order to the season it was listed under.
func OrderInSeason(doc *domain.Document, ix *Index) Result[domain.Edge] {
	l := newLinker(domain.CollOrderInSeason, ix)
	for _, ref := range doc.Orders() {
		l.link(ref.Detail.OrderID.String(), ref.Season, "")
	}
	return l.result()
}

// FrequentlyVisits links a lead customer to every arrival address reached by
// at least FrequentVisitThreshold of their validated orders.
func FrequentlyVisits(doc *domain.Document, ix *Index) Result[domain.Edge] {
	type visit struct{ customer, address string }
	counts := make(map[visit]int)
	var seen []visit
	for _, ref := range doc.Orders() {
		if !ix.Has(domain.CollOrder, ref.Detail.OrderID.String()) {
			continue
		}
		_, dest := doc.LocationsFor(ref.Detail)
		a := addressID(dest)
		if a == "" {
			continue
		}
		v := visit{doc.LeadCustomer(ref.Detail), a}
		if counts[v] == 0 {
			seen = append(seen, v)
		}
		counts[v]++
	}

	l := newLinker(domain.CollFrequentlyVisits, ix)
	for _, v := range seen {
		if counts[v] >= FrequentVisitThreshold {
			l.link(v.customer, v.address, "")
		}
	}
	return l.result()
}
