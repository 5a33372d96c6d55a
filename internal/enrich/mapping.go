package enrich

import (
	"strings"

	"github.com/nstepro/the-compound-sub000/internal/model"
)

// priceRanges maps the API's price level enum onto the ordinal $ scale.
var priceRanges = map[string]string{
	"PRICE_LEVEL_INEXPENSIVE":    "$",
	"PRICE_LEVEL_MODERATE":       "$$",
	"PRICE_LEVEL_EXPENSIVE":      "$$$",
	"PRICE_LEVEL_VERY_EXPENSIVE": "$$$$",
}

func mapPriceLevel(level string) string {
	return priceRanges[level]
}

// typePriority maps external taxonomy terms onto the internal type
// enum. First match wins in row order, so a cafe that is also tagged
// "store" classifies as dining, not shopping.
var typePriority = []struct {
	placeType model.PlaceType
	terms     map[string]struct{}
}{
	{model.TypeDining, termSet(
		"restaurant", "cafe", "coffee_shop", "bar", "bakery", "food",
		"meal_takeaway", "meal_delivery", "ice_cream_shop", "brewery", "winery",
	)},
	{model.TypeAccommodation, termSet(
		"lodging", "hotel", "motel", "bed_and_breakfast", "campground",
		"rv_park", "resort_hotel", "cottage",
	)},
	{model.TypeActivity, termSet(
		"tourist_attraction", "park", "museum", "amusement_park", "aquarium",
		"zoo", "hiking_area", "beach", "marina", "gym", "spa", "art_gallery",
		"movie_theater", "bowling_alley", "golf_course", "national_park",
	)},
	{model.TypeShopping, termSet(
		"store", "shopping_mall", "supermarket", "grocery_store", "market",
	)},
}

func termSet(terms ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		set[t] = struct{}{}
	}
	return set
}

// mapPlaceType resolves the external type list to the internal enum via
// the priority table; unmatched lists fall back to "other". Suffix
// matching covers the API's many "*_store" and "*_shop" variants.
func mapPlaceType(types []string) model.PlaceType {
	if len(types) == 0 {
		return ""
	}
	for _, row := range typePriority {
		for _, t := range types {
			if _, ok := row.terms[t]; ok {
				return row.placeType
			}
			if row.placeType == model.TypeShopping &&
				(strings.HasSuffix(t, "_store") || strings.HasSuffix(t, "_shop")) {
				return model.TypeShopping
			}
		}
	}
	return model.TypeOther
}
