package domain

import "encoding/json"

// Activity is one entry of a day in the canonical itinerary shape.
type Activity struct {
	Name        string   `json:"name"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`
	Price       float64  `json:"price"`
	Location    string   `json:"location"`
	Category    Category `json:"category"`
	Description string   `json:"description"`
}

// Day groups the activities of one calendar date.
type Day struct {
	Date       string     `json:"date"`
	Activities []Activity `json:"activities"`
}

// Guide is the persisted guide document. Timestamps are Unix milliseconds.
type Guide struct {
	GuideID               string        `json:"guideId"`
	Status                GuideStatus   `json:"status"`
	DeviceFingerprint     string        `json:"deviceFingerprint,omitempty"`
	City                  string        `json:"city,omitempty"`
	Request               *GuideRequest `json:"request,omitempty"`
	ErrorMessage          string        `json:"errorMessage,omitempty"`
	CreatedAt             int64         `json:"createdAt"`
	LastUpdated           int64         `json:"lastUpdated"`
	GenerationCompletedAt int64         `json:"generationCompletedAt,omitempty"`
	Days                  []Day         `json:"days,omitempty"`
}

// DeviceRecord tracks an anonymous client device. Timestamps are Unix milliseconds.
type DeviceRecord struct {
	Fingerprint   string `json:"fingerprint"`
	FirstSeen     int64  `json:"firstSeen"`
	LastSeen      int64  `json:"lastSeen"`
	TotalRequests int    `json:"totalRequests"`
}

// LLMCall is one entry of the LLM call ledger.
type LLMCall struct {
	RequestID        string     `json:"requestId"`
	Purpose          LLMPurpose `json:"purpose"`
	Model            string     `json:"model"`
	Stream           bool       `json:"stream"`
	LatencyMs        int64      `json:"latencyMs"`
	PromptTokens     int        `json:"promptTokens,omitempty"`
	CompletionTokens int        `json:"completionTokens,omitempty"`
	TotalTokens      int        `json:"totalTokens,omitempty"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        int64      `json:"createdAt"`
}

// ActivityMetrics reports the durations of an activity generation, in seconds.
type ActivityMetrics struct {
	VerificationTime float64 `json:"verificationTime"`
	GenerationTime   float64 `json:"generationTime"`
	TotalTime        float64 `json:"totalTime"`
}

// GeneratedActivity is the response of the single-shot activity endpoints.
type GeneratedActivity struct {
	Activity
	City      string          `json:"city"`
	CreatedAt int64           `json:"createdAt,omitempty"`
	UpdatedAt int64           `json:"updatedAt,omitempty"`
	Metrics   ActivityMetrics `json:"metrics"`
}

// Place is the result of a geocode lookup.
type Place struct {
	FormattedAddress string  `json:"formattedAddress"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	PlaceID          string  `json:"placeId"`
}

// PlaceDetails is the subset of place details forwarded to clients.
type PlaceDetails struct {
	PlaceID          string   `json:"placeId"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formattedAddress"`
	Lat              float64  `json:"lat"`
	Lng              float64  `json:"lng"`
	Rating           float32  `json:"rating,omitempty"`
	Types            []string `json:"types,omitempty"`
	Website          string   `json:"website,omitempty"`
	PhoneNumber      string   `json:"phoneNumber,omitempty"`
	URL              string   `json:"url,omitempty"`
}

// LocationVerification is the response of POST /verify-location.
type LocationVerification struct {
	Success    bool     `json:"success"`
	Address    string   `json:"address"`
	Place      Place    `json:"place"`
	City       string   `json:"city,omitempty"`
	WithinCity *bool    `json:"withinCity,omitempty"`
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// ToFields converts a value into a generic document field map.
func ToFields(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
