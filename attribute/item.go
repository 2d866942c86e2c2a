package attribute

import (
	"maps"
	"slices"
	"time"
)

// DefaultDomains are the related domains a frontend usually wants to see with an attribute.
var DefaultDomains = []string{"media", "price", "text"}

// Items is an alias type for a slice of Item.
type Items = []Item

// Item is a product attribute, e.g. the color "red" or the size "XL".
//
// Refs holds the list references of the related domains that were requested
// when the item was fetched, keyed by domain.
type Item struct {
	ID         string               `json:"id"`
	Code       string               `json:"code"`
	Domain     string               `json:"domain"`
	Type       string               `json:"type"`
	Label      string               `json:"label"`
	Position   int                  `json:"position"`
	Status     int                  `json:"status"`
	CreatedAt  time.Time            `json:"ctime"`
	ModifiedAt time.Time            `json:"mtime"`
	Refs       map[string][]ListRef `json:"refs,omitempty"`
}

// ListRef references an item of another domain (media, price, text, ...) from an attribute.
type ListRef struct {
	Domain   string `json:"domain"`
	Type     string `json:"type"`
	RefID    string `json:"refid"`
	Position int    `json:"position"`
}

// RefsOf returns the list references for the given domain.
func (i Item) RefsOf(domain string) []ListRef {
	return i.Refs[domain]
}

// Copy returns a deep copy of the item, so the copy's Refs can be modified independently.
func (i Item) Copy() Item {
	if i.Refs == nil {
		return i
	}

	refs := make(map[string][]ListRef, len(i.Refs))
	for domain, list := range i.Refs {
		refs[domain] = slices.Clone(list)
	}
	i.Refs = refs

	return i
}

// OnlyRefsOf returns a copy of the item that keeps the list references of the given domains only.
func (i Item) OnlyRefsOf(domains ...string) Item {
	c := i.Copy()
	if c.Refs == nil {
		return c
	}

	maps.DeleteFunc(c.Refs, func(domain string, _ []ListRef) bool {
		return !slices.Contains(domains, domain)
	})

	if len(c.Refs) == 0 {
		c.Refs = nil
	}

	return c
}
