package itinerary

import (
	"strings"

	"github.com/tourify/guide-api/internal/domain"
)

var (
	culturalHints   = []string{"cultur", "muse", "monument", "histor", "arte", "art ", "galer", "gallery", "catedral", "cathedral", "iglesia", "church", "castillo", "castle", "palacio", "palace"}
	restaurantHints = []string{"restaur", "comida", "food", "almuerzo", "lunch", "cena", "dinner", "desayuno", "breakfast", "tapas", "cafe", "café"}
)

// NormalizeCategory maps a free-form type/category onto the closed vocabulary.
func NormalizeCategory(raw string) domain.Category {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch domain.Category(s) {
	case domain.CategoryCultural, domain.CategoryRestaurant, domain.CategoryOther:
		return domain.Category(s)
	}
	if s == "" {
		return domain.CategoryOther
	}
	for _, h := range restaurantHints {
		if strings.Contains(s, h) {
			return domain.CategoryRestaurant
		}
	}
	for _, h := range culturalHints {
		if strings.Contains(s, h) {
			return domain.CategoryCultural
		}
	}
	return domain.CategoryOther
}
