// Package itinerary turns accumulated LLM output into canonical Day and
// Activity records. It performs no I/O.
package itinerary

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tourify/guide-api/internal/domain"
)

var (
	itineraryKeys  = []string{"itinerary", "itinerario"}
	dateKeys       = []string{"date", "fecha"}
	activitiesKeys = []string{"activities", "actividades"}
)

// Reconcile parses a complete LLM buffer into days ordered by date. Any shape
// mismatch yields a *domain.ReconciliationError and no partial result.
func Reconcile(buffer string) ([]domain.Day, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripFences(buffer)), &top); err != nil {
		return nil, &domain.ReconciliationError{Reason: "invalid json", Err: err}
	}

	rawDays, ok := pick(top, itineraryKeys)
	if !ok {
		return nil, &domain.ReconciliationError{Reason: "missing itinerary key"}
	}
	var days []map[string]json.RawMessage
	if err := json.Unmarshal(rawDays, &days); err != nil {
		return nil, &domain.ReconciliationError{Reason: "itinerary is not a day list", Err: err}
	}

	byDate := make(map[string]int, len(days))
	var out []domain.Day
	for i, rawDay := range days {
		day, err := reconcileDay(rawDay)
		if err != nil {
			return nil, &domain.ReconciliationError{Reason: fmt.Sprintf("day %d", i), Err: err}
		}
		if idx, seen := byDate[day.Date]; seen {
			out[idx].Activities = append(out[idx].Activities, day.Activities...)
			continue
		}
		byDate[day.Date] = len(out)
		out = append(out, day)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func reconcileDay(raw map[string]json.RawMessage) (domain.Day, error) {
	var date string
	if v, ok := pick(raw, dateKeys); ok {
		if err := json.Unmarshal(v, &date); err != nil {
			return domain.Day{}, fmt.Errorf("date is not a string: %w", err)
		}
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return domain.Day{}, errors.New("missing date")
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return domain.Day{}, fmt.Errorf("date %q is not YYYY-MM-DD", date)
	}

	day := domain.Day{Date: date, Activities: []domain.Activity{}}
	v, ok := pick(raw, activitiesKeys)
	if !ok {
		return day, nil
	}
	var activities []RawActivity
	if err := json.Unmarshal(v, &activities); err != nil {
		return domain.Day{}, fmt.Errorf("activities is not a list: %w", err)
	}
	for _, a := range activities {
		if a == nil {
			continue
		}
		day.Activities = append(day.Activities, NormalizeActivity(a))
	}
	return day, nil
}

func pick(m map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
