package itinerary

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tourify/guide-api/internal/domain"
)

// LocationFallback is used when an activity carries no location.
const LocationFallback = "not specified"

// MaxDescriptionWords bounds single-shot activity descriptions.
const MaxDescriptionWords = 20

// Field aliases accepted from upstream, canonical key first.
var (
	nameKeys        = []string{"name", "nombre", "title", "titulo"}
	startKeys       = []string{"start_time", "hora_inicio", "startTime", "start"}
	endKeys         = []string{"end_time", "hora_fin", "endTime", "end"}
	durationKeys    = []string{"duration", "duracion", "duración"}
	priceKeys       = []string{"price", "precio", "cost", "coste"}
	locationKeys    = []string{"location", "ubicacion", "ubicación", "address", "direccion", "transporte"}
	categoryKeys    = []string{"category", "categoria", "categoría", "tipo", "type"}
	descriptionKeys = []string{"description", "descripcion", "descripción"}
)

// RawActivity is one activity as decoded from upstream JSON, before normalization.
type RawActivity map[string]any

func (r RawActivity) lookup(keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (r RawActivity) text(keys []string) string {
	v, ok := r.lookup(keys)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func (r RawActivity) has(keys []string) bool {
	_, ok := r.lookup(keys)
	return ok
}

// price reads a numeric price or the leading number of a price string.
func (r RawActivity) price() float64 {
	v, ok := r.lookup(priceKeys)
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, ok := domain.ParseLeadingNumber(t); ok {
			return f
		}
	}
	return 0
}

// duration reads a duration string; bare numbers are hours.
func (r RawActivity) duration() string {
	v, ok := r.lookup(durationKeys)
	if !ok {
		return ""
	}
	if f, isNum := v.(float64); isNum {
		return strconv.FormatFloat(f, 'f', -1, 64) + " hours"
	}
	return r.text(durationKeys)
}

// NormalizeActivity maps one raw activity onto the canonical shape. A supplied
// end time is kept; otherwise it is derived from the start time and duration.
func NormalizeActivity(raw RawActivity) domain.Activity {
	start := raw.text(startKeys)
	end := raw.text(endKeys)
	if end == "" {
		end = EndTime(start, raw.duration())
	}
	location := raw.text(locationKeys)
	if location == "" {
		location = LocationFallback
	}
	return domain.Activity{
		Name:        raw.text(nameKeys),
		StartTime:   start,
		EndTime:     end,
		Price:       raw.price(),
		Location:    location,
		Category:    NormalizeCategory(raw.text(categoryKeys)),
		Description: raw.text(descriptionKeys),
	}
}

// ParseActivity decodes a single-shot activity object. All seven fields must
// be present and the description must not exceed MaxDescriptionWords.
func ParseActivity(content string) (domain.Activity, error) {
	body := extractObject(stripFences(content))
	var raw RawActivity
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return domain.Activity{}, &domain.ReconciliationError{Reason: "invalid activity json", Err: err}
	}

	required := []struct {
		name string
		keys []string
	}{
		{"name", nameKeys},
		{"start_time", startKeys},
		{"end_time", endKeys},
		{"price", priceKeys},
		{"location", locationKeys},
		{"category", categoryKeys},
		{"description", descriptionKeys},
	}
	var missing []string
	for _, f := range required {
		if !raw.has(f.keys) {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return domain.Activity{}, &domain.ReconciliationError{Reason: "missing fields: " + strings.Join(missing, ", ")}
	}

	activity := NormalizeActivity(raw)
	if n := len(strings.Fields(activity.Description)); n > MaxDescriptionWords {
		return domain.Activity{}, &domain.ReconciliationError{Reason: fmt.Sprintf("description has %d words, limit is %d", n, MaxDescriptionWords)}
	}
	return activity, nil
}

// extractObject returns the outermost {...} span of s, or s when there is none.
func extractObject(s string) string {
	i := strings.Index(s, "{")
	j := strings.LastIndex(s, "}")
	if i < 0 || j < i {
		return s
	}
	return s[i : j+1]
}
