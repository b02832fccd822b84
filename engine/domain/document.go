package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FlexID is an identifier that may arrive as a JSON string or number.
// null decodes to the empty ID.
type FlexID string

// UnmarshalJSON accepts strings and numbers.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number, got %s", b)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string { return string(f) }

// CountryBlock is a nested country-data block.
type CountryBlock struct {
	ID          FlexID     `json:"_id"`
	EnglishName FlexString `json:"englishName"`
}

// AddressBlock is the address nested inside a location block.
type AddressBlock struct {
	ID         FlexID     `json:"_id"`
	Street     FlexString `json:"street"`
	City       FlexString `json:"city"`
	State      FlexString `json:"state"`
	PostalCode FlexString `json:"postalCode"`
	CountryID  FlexID     `json:"countryId"`
}

// LocationBlock is an origin or destination location-data block.
type LocationBlock struct {
	ID        FlexID        `json:"_id"`
	Name      FlexString    `json:"name"`
	CountryID FlexID        `json:"countryId"`
	Address   *AddressBlock `json:"address"`
}

// CustomerBlock carries customer fields, either the document's own
// top-level fields or a passenger entry on an order.
type CustomerBlock struct {
	ID          FlexID     `json:"_id"`
	Email       FlexString `json:"email"`
	Age         FlexInt    `json:"age"`
	PhoneNumber FlexString `json:"phoneNumber"`
	CountryName FlexString `json:"countryName"`
}

// OrderDetail is one entry of a season's details list.
type OrderDetail struct {
	OrderID                 FlexID          `json:"orderId"`
	CustomerID              FlexID          `json:"customerId"`
	TotalPrice              FlexFloat       `json:"totalPrice"`
	PriceType               FlexString      `json:"priceType"`
	PotentialFraud          FlexBool        `json:"potentialFraud"`
	OrderCreatedAt          FlexString      `json:"orderCreatedAt"`
	DepartureAt             FlexString      `json:"departureAt"`
	PaymentMethod           *FlexID         `json:"paymentMethod"`
	Vehicles                []FlexID        `json:"vehicles"`
	OriginLocationData      *LocationBlock  `json:"originLocationData"`
	DestinationLocationData *LocationBlock  `json:"destinationLocationData"`
	Passengers              []CustomerBlock `json:"passengers"`
}

// SeasonBlock groups the orders of one season label.
type SeasonBlock struct {
	Details []OrderDetail `json:"details"`
}

// Document is one item of the exported JSON array: a customer with their
// orders grouped by season.
type Document struct {
	CustomerBlock

	CountryData             *CountryBlock          `json:"countryData"`
	OriginCountryData       *CountryBlock          `json:"originCountryData"`
	DestinationCountryData  *CountryBlock          `json:"destinationCountryData"`
	OriginLocationData      *LocationBlock         `json:"originLocationData"`
	DestinationLocationData *LocationBlock         `json:"destinationLocationData"`
	Seasons                 map[string]SeasonBlock `json:"seasons"`
}

// DecodeDocument parses one raw array item into a Document. A malformed
// nested structure or key is reported as ErrMalformedDocument; optional
// scalar attributes of the wrong type decode as unset.
func DecodeDocument(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return &doc, nil
}

// OrderRef points at one order detail and the season it was listed under.
type OrderRef struct {
	Season string
	Detail *OrderDetail
}

// SeasonLabels returns the season labels in sorted order so that every pass
// over a document visits seasons identically.
func (d *Document) SeasonLabels() []string {
	labels := make([]string, 0, len(d.Seasons))
	for label := range d.Seasons {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Orders returns every order detail in deterministic order.
func (d *Document) Orders() []OrderRef {
	var refs []OrderRef
	for _, label := range d.SeasonLabels() {
		details := d.Seasons[label].Details
		for i := range details {
			refs = append(refs, OrderRef{Season: label, Detail: &details[i]})
		}
	}
	return refs
}

// LocationsFor resolves an order's origin and destination blocks. Blocks on
// the detail win; the document-level blocks are the fallback.
func (d *Document) LocationsFor(det *OrderDetail) (origin, destination *LocationBlock) {
	origin, destination = det.OriginLocationData, det.DestinationLocationData
	if origin == nil {
		origin = d.OriginLocationData
	}
	if destination == nil {
		destination = d.DestinationLocationData
	}
	return origin, destination
}

// LeadCustomer is the customer who placed the order.
func (d *Document) LeadCustomer(det *OrderDetail) string {
	if det.CustomerID != "" {
		return det.CustomerID.String()
	}
	return d.ID.String()
}

// LocationOccurrence is one location block found in a document.
type LocationOccurrence struct {
	Source string // JSON key the block was read from
	Block  *LocationBlock
}

// LocationBlocks lists every location block occurrence: document-level
// blocks first, then each order's own blocks.
func (d *Document) LocationBlocks() []LocationOccurrence {
	var out []LocationOccurrence
	add := func(src string, b *LocationBlock) {
		if b != nil {
			out = append(out, LocationOccurrence{Source: src, Block: b})
		}
	}
	add("originLocationData", d.OriginLocationData)
	add("destinationLocationData", d.DestinationLocationData)
	for _, ref := range d.Orders() {
		add("originLocationData", ref.Detail.OriginLocationData)
		add("destinationLocationData", ref.Detail.DestinationLocationData)
	}
	return out
}

// CountryOccurrence is one country block found in a document.
type CountryOccurrence struct {
	Source string
	Block  *CountryBlock
}

// CountryBlocks lists the document's country blocks in a fixed key order.
func (d *Document) CountryBlocks() []CountryOccurrence {
	var out []CountryOccurrence
	for _, c := range []CountryOccurrence{
		{"countryData", d.CountryData},
		{"originCountryData", d.OriginCountryData},
		{"destinationCountryData", d.DestinationCountryData},
	} {
		if c.Block != nil {
			out = append(out, c)
		}
	}
	return out
}
