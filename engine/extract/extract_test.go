package extract

import (
	"errors"
	"testing"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
)

const fixture = `{
	"_id": "cust-1",
	"email": "ana@example.com",
	"age": 34,
	"phoneNumber": "+420111222333",
	"countryName": "Czechia",
	"countryData": {"_id": "cz", "englishName": "Czechia"},
	"originCountryData": {"_id": "cz", "englishName": "Czechia"},
	"destinationCountryData": {"_id": "at", "englishName": "Austria"},
	"originLocationData": {
		"_id": "loc-prg", "name": "Prague", "countryId": "cz",
		"address": {"_id": "addr-prg", "street": "Wenceslas Sq 1", "city": "Prague", "countryId": "cz"}
	},
	"destinationLocationData": {
		"_id": "loc-vie", "name": "Vienna", "countryId": "at",
		"address": {"_id": "addr-vie", "street": "Ring 2", "city": "Vienna", "countryId": "at"}
	},
	"seasons": {
		"Season-2023": {"details": [
			{
				"orderId": "o-1",
				"totalPrice": 120.5,
				"priceType": "fixed",
				"potentialFraud": false,
				"orderCreatedAt": "2023-05-01T10:00:00.000Z",
				"departureAt": "2023-06-01T08:30:00.000Z",
				"paymentMethod": 1,
				"vehicles": [2],
				"passengers": [{"_id": "cust-2", "email": "bo@example.com", "countryName": "Austria"}]
			},
			{
				"orderId": "o-2",
				"orderCreatedAt": "2023-07-01T10:00:00.000Z",
				"departureAt": "2023-08-01T08:30:00.000Z",
				"paymentMethod": 0,
				"vehicles": ["0", 99]
			}
		]},
		"BadLabel": {"details": []}
	}
}`

func decode(t *testing.T, raw string) *domain.Document {
	t.Helper()
	doc, err := domain.DecodeDocument([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

func keys[T keyed](items []T) []string {
	out := make([]string, len(items))
	for i, v := range items {
		out[i] = v.Key()
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCustomersIncludePassengers(t *testing.T) {
	res := Customers(decode(t, fixture))
	if got := keys(res.Valid); !equal(got, []string{"cust-1", "cust-2"}) {
		t.Fatalf("keys = %v", got)
	}
	if res.Valid[0].Age != 34 || res.Valid[1].Age != 0 {
		t.Errorf("ages = %d, %d", res.Valid[0].Age, res.Valid[1].Age)
	}
	if len(res.Rejected) != 0 {
		t.Errorf("rejected = %v", res.Rejected)
	}
}

func TestCustomerMissingEmail(t *testing.T) {
	res := Customers(decode(t, `{"_id": "c"}`))
	if len(res.Valid) != 0 {
		t.Fatalf("expected no valid customers, got %v", res.Valid)
	}
	if len(res.Rejected) != 1 || !errors.Is(res.Rejected[0].Err, domain.ErrMissingFields) {
		t.Fatalf("rejected = %v", res.Rejected)
	}
	if res.Rejected[0].Key != "c" {
		t.Errorf("rejection key = %q", res.Rejected[0].Key)
	}
}

func TestCountriesDeduplicated(t *testing.T) {
	res := Countries(decode(t, fixture))
	if got := keys(res.Valid); !equal(got, []string{"cz", "at"}) {
		t.Fatalf("keys = %v", got)
	}
}

func TestCountryMissingName(t *testing.T) {
	res := Countries(decode(t, `{"countryData": {"_id": "xx"}}`))
	if len(res.Valid) != 0 || len(res.Rejected) != 1 {
		t.Fatalf("valid=%v rejected=%v", res.Valid, res.Rejected)
	}
	if res.Rejected[0].Detail != "countryData" {
		t.Errorf("detail = %q", res.Rejected[0].Detail)
	}
}

func TestSeasons(t *testing.T) {
	res := Seasons(decode(t, fixture))
	if len(res.Valid) != 1 || res.Valid[0].Label != "Season-2023" || res.Valid[0].Name != "2023" {
		t.Fatalf("valid = %+v", res.Valid)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Key != "BadLabel" {
		t.Fatalf("rejected = %v", res.Rejected)
	}
	if !errors.Is(res.Rejected[0].Err, domain.ErrInvalidSeasonLabel) {
		t.Errorf("err = %v", res.Rejected[0].Err)
	}
}

func TestAddresses(t *testing.T) {
	res := Addresses(decode(t, fixture))
	if got := keys(res.Valid); !equal(got, []string{"addr-prg", "addr-vie"}) {
		t.Fatalf("keys = %v", got)
	}
	if res.Valid[0].CountryName != "cz" {
		t.Errorf("country reference = %q", res.Valid[0].CountryName)
	}

	res = Addresses(decode(t, `{"originLocationData": {"_id": "l", "name": "L", "address": {"_id": "a"}}}`))
	if len(res.Valid) != 0 || len(res.Rejected) != 1 {
		t.Fatalf("valid=%v rejected=%v", res.Valid, res.Rejected)
	}
}

func TestLocationWithoutAddress(t *testing.T) {
	doc := decode(t, `{"originLocationData": {"_id": "l", "name": "L", "countryId": "cz"}}`)
	if res := Addresses(doc); len(res.Valid) != 0 || len(res.Rejected) != 0 {
		t.Fatalf("addresses = %+v", res)
	}
	if res := Locations(doc); len(res.Valid) != 1 {
		t.Fatalf("locations = %+v", res)
	}
}

func TestOrders(t *testing.T) {
	res := Orders(decode(t, fixture))
	if got := keys(res.Valid); !equal(got, []string{"o-1", "o-2"}) {
		t.Fatalf("keys = %v", got)
	}
	o1, o2 := res.Valid[0], res.Valid[1]
	if o1.TotalPrice == nil || *o1.TotalPrice != 120.5 {
		t.Errorf("total price = %v", o1.TotalPrice)
	}
	if o2.TotalPrice != nil {
		t.Errorf("expected nil total price, got %v", *o2.TotalPrice)
	}
	if o1.CreatedAt.Month() != 5 || o1.DepartureAt.Hour() != 8 || o1.DepartureAt.Minute() != 30 {
		t.Errorf("timestamps = %v, %v", o1.CreatedAt, o1.DepartureAt)
	}
	if o2.PaymentMethodID != "0" {
		t.Errorf("payment method id = %q", o2.PaymentMethodID)
	}
}

func TestOrderRejections(t *testing.T) {
	tests := []struct {
		name   string
		detail string
		want   error
	}{
		{"missing departure", `{"orderId": "o", "orderCreatedAt": "2023-05-01T10:00:00.000Z"}`, domain.ErrMissingFields},
		{"missing id", `{"orderCreatedAt": "2023-05-01T10:00:00.000Z", "departureAt": "2023-05-01T10:00:00.000Z"}`, domain.ErrMissingFields},
		{"bad created", `{"orderId": "o", "orderCreatedAt": "yesterday", "departureAt": "2023-05-01T10:00:00.000Z"}`, domain.ErrInvalidTimestamp},
		{"no millis", `{"orderId": "o", "orderCreatedAt": "2023-05-01T10:00:00.000Z", "departureAt": "2023-05-01T10:00:00Z"}`, domain.ErrInvalidTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Orders(decode(t, `{"seasons": {"Season-2023": {"details": [`+tt.detail+`]}}}`))
			if len(res.Valid) != 0 {
				t.Fatalf("valid = %v", res.Valid)
			}
			if len(res.Rejected) != 1 || !errors.Is(res.Rejected[0].Err, tt.want) {
				t.Fatalf("rejected = %v, want %v", res.Rejected, tt.want)
			}
		})
	}
}

func TestPaymentMethods(t *testing.T) {
	res := PaymentMethods(decode(t, fixture))
	if got := keys(res.Valid); !equal(got, []string{"1", "0"}) {
		t.Fatalf("keys = %v", got)
	}
	if res.Valid[1].MethodName != "cash payment" {
		t.Errorf("method name = %q", res.Valid[1].MethodName)
	}

	res = PaymentMethods(decode(t, `{"seasons": {"S-1": {"details": [{"orderId": "o", "paymentMethod": 7}, {"orderId": "p"}]}}}`))
	if len(res.Valid) != 1 || res.Valid[0].MethodName != "7" {
		t.Fatalf("valid = %+v", res.Valid)
	}
	if len(res.Rejected) != 0 {
		t.Fatalf("rejected = %v", res.Rejected)
	}

	res = PaymentMethods(decode(t, `{"seasons": {"S-1": {"details": [{"orderId": "o", "paymentMethod": ""}]}}}`))
	if len(res.Valid) != 0 || len(res.Rejected) != 1 {
		t.Fatalf("valid=%v rejected=%v", res.Valid, res.Rejected)
	}
}

func TestVehicleTypes(t *testing.T) {
	res := VehicleTypes(decode(t, fixture))
	if got := keys(res.Valid); !equal(got, []string{"2", "0"}) {
		t.Fatalf("keys = %v", got)
	}
	if res.Valid[0].TypeName != "van" {
		t.Errorf("type name = %q", res.Valid[0].TypeName)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Key != "99" {
		t.Fatalf("rejected = %v", res.Rejected)
	}
	if res.Rejected[0].Reason() != "invalid vehicle type id" {
		t.Errorf("reason = %q", res.Rejected[0].Reason())
	}
}

func TestEntitiesAggregate(t *testing.T) {
	e := ExtractEntities(decode(t, fixture))
	// 2 customers, 2 countries, 2 locations, 1 season, 2 addresses,
	// 2 orders, 2 payment methods, 2 vehicle types
	if got := len(e.Vertices()); got != 15 {
		t.Errorf("vertices = %d", got)
	}
	if got := len(e.Rejections()); got != 2 {
		t.Errorf("rejections = %v", e.Rejections())
	}
	ix := NewIndex(e)
	if !ix.Has(domain.CollOrder, "o-1") || ix.Has(domain.CollOrder, "o-9") || ix.Has(domain.CollOrder, "") {
		t.Error("index membership wrong")
	}
	if k, ok := ix.CountryKey("Austria"); !ok || k != "at" {
		t.Errorf("CountryKey(Austria) = %q, %v", k, ok)
	}
	if ix.Len(domain.CollVehicleType) != 2 {
		t.Errorf("vehicle types indexed = %d", ix.Len(domain.CollVehicleType))
	}
}
