// Package maps wraps the Google Maps geocoding and place details APIs.
package maps

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang/geo/s2"
	gmaps "googlemaps.github.io/maps"

	"github.com/tourify/guide-api/internal/domain"
)

const earthRadiusKm = 6371.0088

// Client is a geocoder backed by Google Maps.
type Client struct {
	api *gmaps.Client
}

// NewClient creates a Maps client. Extra options (e.g. gmaps.WithBaseURL) are passed through.
func NewClient(apiKey string, opts ...gmaps.ClientOption) (*Client, error) {
	api, err := gmaps.NewClient(append([]gmaps.ClientOption{gmaps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{api: api}, nil
}

// Geocode resolves an address to its best match.
func (c *Client) Geocode(ctx context.Context, address string) (domain.Place, error) {
	results, err := c.api.Geocode(ctx, &gmaps.GeocodingRequest{Address: address})
	if err != nil && strings.Contains(err.Error(), "ZERO_RESULTS") {
		return domain.Place{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Place{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return domain.Place{}, domain.ErrNotFound
	}
	r := results[0]
	return domain.Place{
		FormattedAddress: r.FormattedAddress,
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		PlaceID:          r.PlaceID,
	}, nil
}

// PlaceDetails looks up one place by id.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (domain.PlaceDetails, error) {
	r, err := c.api.PlaceDetails(ctx, &gmaps.PlaceDetailsRequest{PlaceID: placeID})
	if err != nil {
		return domain.PlaceDetails{}, fmt.Errorf("place details %q: %w", placeID, err)
	}
	return domain.PlaceDetails{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		FormattedAddress: r.FormattedAddress,
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		Rating:           r.Rating,
		Types:            r.Types,
		Website:          r.Website,
		PhoneNumber:      r.InternationalPhoneNumber,
		URL:              r.URL,
	}, nil
}

// DistanceKm is the great-circle distance between two places.
func DistanceKm(a, b domain.Place) float64 {
	pa := s2.LatLngFromDegrees(a.Lat, a.Lng)
	pb := s2.LatLngFromDegrees(b.Lat, b.Lng)
	return pa.Distance(pb).Radians() * earthRadiusKm
}
