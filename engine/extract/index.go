package extract

import "github.com/WessleyAI/daytrip-loader/engine/domain"

// Index maps each collection's validated keys for one document, so that
// endpoint checks are constant-time lookups. It also carries the validated
// customers, whose country names drive originated_from.
type Index struct {
	keys          map[domain.Collection]map[string]struct{}
	countryByName map[string]string
	customers     []domain.Customer
}

// NewIndex builds the index from a document's validated entities.
func NewIndex(e Entities) *Index {
	ix := &Index{
		keys:          make(map[domain.Collection]map[string]struct{}),
		countryByName: make(map[string]string),
		customers:     e.Customers.Valid,
	}
	for _, v := range e.Vertices() {
		set, ok := ix.keys[v.Collection()]
		if !ok {
			set = make(map[string]struct{})
			ix.keys[v.Collection()] = set
		}
		set[v.Key()] = struct{}{}
	}
	for _, c := range e.Countries.Valid {
		if _, ok := ix.countryByName[c.Name]; !ok {
			ix.countryByName[c.Name] = c.ID
		}
	}
	return ix
}

// Has reports whether key was validated in collection c.
func (ix *Index) Has(c domain.Collection, key string) bool {
	if key == "" {
		return false
	}
	_, ok := ix.keys[c][key]
	return ok
}

// CountryKey resolves a validated country's key from its name.
func (ix *Index) CountryKey(name string) (string, bool) {
	key, ok := ix.countryByName[name]
	return key, ok
}

// Customers returns the validated customers in extraction order.
func (ix *Index) Customers() []domain.Customer { return ix.customers }

// Len returns the number of validated keys in collection c.
func (ix *Index) Len(c domain.Collection) int { return len(ix.keys[c]) }
