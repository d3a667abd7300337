package service

import (
	"context"
	"errors"
	"strings"

	"github.com/tourify/guide-api/internal/adapter/maps"
	"github.com/tourify/guide-api/internal/domain"
)

// VerifyLocation geocodes an address and, when a city is given, reports
// whether the address lies within the configured radius of the city.
func (s *Service) VerifyLocation(ctx context.Context, req domain.VerifyLocationRequest) (*domain.LocationVerification, error) {
	address := strings.TrimSpace(req.Address)
	if address == "" {
		return nil, domain.NewClientError("address", "address is required")
	}
	if s.geocoder == nil {
		return nil, domain.NewUpstreamError("maps", domain.ErrNotConfigured)
	}

	place, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, mapsError(err)
	}
	out := &domain.LocationVerification{Success: true, Address: address, Place: place}

	city := strings.TrimSpace(req.City)
	if city == "" {
		return out, nil
	}
	center, err := s.geocoder.Geocode(ctx, city)
	if err != nil {
		return nil, mapsError(err)
	}
	distance := maps.DistanceKm(place, center)
	within := distance <= s.config.CityRadiusKm
	out.City = city
	out.DistanceKm = &distance
	out.WithinCity = &within
	return out, nil
}

// PlaceDetails looks up a place by id.
func (s *Service) PlaceDetails(ctx context.Context, placeID string) (*domain.PlaceDetails, error) {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return nil, domain.NewClientError("placeId", "placeId is required")
	}
	if s.geocoder == nil {
		return nil, domain.NewUpstreamError("maps", domain.ErrNotConfigured)
	}
	details, err := s.geocoder.PlaceDetails(ctx, placeID)
	if err != nil {
		return nil, mapsError(err)
	}
	return &details, nil
}

func mapsError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return domain.NewUpstreamError("maps", err)
}

// CityImage returns a landscape photo URL for a city.
func (s *Service) CityImage(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", domain.NewClientError("city", "city is required")
	}
	if s.cityImages == nil {
		return "", domain.NewUpstreamError("unsplash", domain.ErrNotConfigured)
	}
	url, err := s.cityImages.Search(ctx, city+" city")
	if err != nil {
		if errors.Is(err, domain.ErrNoImage) {
			return "", err
		}
		return "", domain.NewUpstreamError("unsplash", err)
	}
	return url, nil
}
