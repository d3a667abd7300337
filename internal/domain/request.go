package domain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for arrival/departure and day keys.
const DateLayout = "2006-01-02"

// DefaultActivitiesPerDay is used when the request does not specify a count.
const DefaultActivitiesPerDay = 4

// StringList accepts either a JSON string or a JSON array of strings.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if strings.TrimSpace(single) == "" {
			*l = nil
		} else {
			*l = StringList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// String joins the list for prompt interpolation.
func (l StringList) String() string {
	return strings.Join(l, ", ")
}

// GuideRequest holds the itinerary generation parameters sent by the client.
type GuideRequest struct {
	GuideID          string     `json:"guideId,omitempty"`
	City             string     `json:"city"`
	ArrivalDate      string     `json:"arrivalDate"`
	DepartureDate    string     `json:"departureDate"`
	Interests        StringList `json:"interests,omitempty"`
	Transport        string     `json:"transport,omitempty"`
	Budget           *float64   `json:"budget,omitempty"`
	Currency         string     `json:"currency,omitempty"`
	MandatoryStops   StringList `json:"mandatoryStops,omitempty"`
	ExcludedStops    StringList `json:"excludedStops,omitempty"`
	ActivitiesPerDay int        `json:"activitiesPerDay,omitempty"`
	Comments         string     `json:"comments,omitempty"`
	Stream           bool       `json:"stream,omitempty"`
}

// UnmarshalJSON accepts the canonical field names plus the legacy
// location/startDate/endDate aliases, and numbers sent as strings.
func (r *GuideRequest) UnmarshalJSON(data []byte) error {
	type plain GuideRequest
	var aux struct {
		plain
		Location         string          `json:"location"`
		StartDate        string          `json:"startDate"`
		EndDate          string          `json:"endDate"`
		Budget           json.RawMessage `json:"budget"`
		ActivitiesPerDay json.RawMessage `json:"activitiesPerDay"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = GuideRequest(aux.plain)
	if r.City == "" {
		r.City = aux.Location
	}
	if r.ArrivalDate == "" {
		r.ArrivalDate = aux.StartDate
	}
	if r.DepartureDate == "" {
		r.DepartureDate = aux.EndDate
	}
	if v, ok := parseLooseNumber(aux.Budget); ok {
		r.Budget = &v
	}
	if v, ok := parseLooseNumber(aux.ActivitiesPerDay); ok && v >= 1 {
		r.ActivitiesPerDay = int(v)
	}
	return nil
}

var leadingNumber = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// parseLooseNumber reads a JSON number or the first number inside a JSON string.
func parseLooseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	return ParseLeadingNumber(s)
}

// ParseLeadingNumber extracts the first numeric magnitude from free text,
// accepting a comma as decimal separator.
func ParseLeadingNumber(s string) (float64, bool) {
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Validate checks the four required fields and the date range.
func (r *GuideRequest) Validate() error {
	if strings.TrimSpace(r.City) == "" {
		return NewClientError("city", "city is required")
	}
	if strings.TrimSpace(r.ArrivalDate) == "" {
		return NewClientError("arrivalDate", "arrivalDate is required")
	}
	if strings.TrimSpace(r.DepartureDate) == "" {
		return NewClientError("departureDate", "departureDate is required")
	}
	if r.Budget == nil || *r.Budget == 0 {
		return NewClientError("budget", "budget is required")
	}
	if *r.Budget < 0 {
		return NewClientError("budget", "budget must be positive")
	}
	arrival, err := time.Parse(DateLayout, strings.TrimSpace(r.ArrivalDate))
	if err != nil {
		return NewClientError("arrivalDate", "arrivalDate must be YYYY-MM-DD")
	}
	departure, err := time.Parse(DateLayout, strings.TrimSpace(r.DepartureDate))
	if err != nil {
		return NewClientError("departureDate", "departureDate must be YYYY-MM-DD")
	}
	if arrival.After(departure) {
		return NewClientError("departureDate", "departureDate must not be before arrivalDate")
	}
	return nil
}

// ActivitiesOrDefault returns the requested activities per day or the default.
func (r *GuideRequest) ActivitiesOrDefault() int {
	if r.ActivitiesPerDay < 1 {
		return DefaultActivitiesPerDay
	}
	return r.ActivitiesPerDay
}

// CreateActivityRequest is the body of POST /createActivity.
type CreateActivityRequest struct {
	ActivityName string `json:"activityName"`
	CityName     string `json:"cityName"`
}

// EditActivityRequest is the body of POST /editActivity.
type EditActivityRequest struct {
	Activity string `json:"activity"`
	NewTitle string `json:"newTitle"`
	CityName string `json:"cityName"`
}

// RenewActivityRequest is the body of POST /renewActivity.
type RenewActivityRequest struct {
	Category           string   `json:"category"`
	ExistingActivities []string `json:"existingActivities"`
	City               string   `json:"city"`
}

// VerifyLocationRequest is the body of POST /verify-location.
type VerifyLocationRequest struct {
	Address string `json:"address"`
	City    string `json:"city,omitempty"`
}
