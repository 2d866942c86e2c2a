package helper

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/attribute-query-go/attribute"
)

// Fixture item IDs, see FixtureItems.
const (
	FixtureIDColorRed     = "1"
	FixtureIDColorBlue    = "2"
	FixtureIDColorGreen   = "3"
	FixtureIDSizeS        = "4"
	FixtureIDSizeM        = "5"
	FixtureIDSizeL        = "6"
	FixtureIDCatalogColor = "7"
)

// FixtureClock is the creation time of all fixture items; item N was modified N hours later.
var FixtureClock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// GivenUniqueID returns a fresh time-ordered ID.
func GivenUniqueID(t testing.TB) string {
	id, err := uuid.NewV7()
	require.NoError(t, err, "error in arranging test data")

	return id.String()
}

// FixtureItems returns a fresh set of attribute items:
//
//	1 product color red    pos 1 status  1  refs: text, media
//	2 product color blue   pos 2 status  1  refs: text
//	3 product color green  pos 3 status  0
//	4 product size  S      pos 1 status  1  refs: price
//	5 product size  M      pos 2 status  1
//	6 product size  L      pos 3 status -1
//	7 catalog color red    pos 1 status  1
func FixtureItems() attribute.Items {
	return attribute.Items{
		fixtureItem(FixtureIDColorRed, "product", "color", "red", "Red", 1, 1, map[string][]attribute.ListRef{
			"text":  {{Domain: "text", Type: "default", RefID: "t-1", Position: 0}},
			"media": {{Domain: "media", Type: "icon", RefID: "m-1", Position: 0}},
		}),
		fixtureItem(FixtureIDColorBlue, "product", "color", "blue", "Blue", 2, 1, map[string][]attribute.ListRef{
			"text": {{Domain: "text", Type: "default", RefID: "t-2", Position: 0}},
		}),
		fixtureItem(FixtureIDColorGreen, "product", "color", "green", "Green", 3, 0, nil),
		fixtureItem(FixtureIDSizeS, "product", "size", "S", "Small", 1, 1, map[string][]attribute.ListRef{
			"price": {{Domain: "price", Type: "default", RefID: "p-4", Position: 0}},
		}),
		fixtureItem(FixtureIDSizeM, "product", "size", "M", "Medium", 2, 1, nil),
		fixtureItem(FixtureIDSizeL, "product", "size", "L", "Large", 3, -1, nil),
		fixtureItem(FixtureIDCatalogColor, "catalog", "color", "red", "Red", 1, 1, nil),
	}
}

// FixtureItem returns the fixture item with the given ID.
func FixtureItem(t testing.TB, id string) attribute.Item {
	for _, item := range FixtureItems() {
		if item.ID == id {
			return item
		}
	}

	require.FailNow(t, "unknown fixture item", id)

	return attribute.Item{}
}

// IDsOf returns the IDs of the items in their order.
func IDsOf(items attribute.Items) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	return ids
}

func fixtureItem(id, domain, typ, code, label string, position, status int, refs map[string][]attribute.ListRef) attribute.Item {
	n, _ := strconv.Atoi(id)

	return attribute.Item{
		ID:         id,
		Code:       code,
		Domain:     domain,
		Type:       typ,
		Label:      label,
		Position:   position,
		Status:     status,
		CreatedAt:  FixtureClock,
		ModifiedAt: FixtureClock.Add(time.Duration(n) * time.Hour),
		Refs:       refs,
	}
}
