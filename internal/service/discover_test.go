package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourify/guide-api/internal/adapter/llm"
	"github.com/tourify/guide-api/internal/domain"
)

type fakeImages struct {
	urls    map[string]string
	queries []string
}

func (f *fakeImages) Search(_ context.Context, query string) (string, error) {
	f.queries = append(f.queries, query)
	if url, ok := f.urls[query]; ok {
		return url, nil
	}
	return "", domain.ErrNoImage
}

type fakeGeocoder struct {
	places map[string]domain.Place
	err    error
}

func (f *fakeGeocoder) Geocode(_ context.Context, address string) (domain.Place, error) {
	if f.err != nil {
		return domain.Place{}, f.err
	}
	p, ok := f.places[address]
	if !ok {
		return domain.Place{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeGeocoder) PlaceDetails(_ context.Context, placeID string) (domain.PlaceDetails, error) {
	return domain.PlaceDetails{PlaceID: placeID, Name: "Prado"}, nil
}

func TestDiscoverEnrichesAndSkips(t *testing.T) {
	mock := &llm.MockClient{Fragments: []string{
		`{"title":"Prado","descri`,
		"ption\":\"Art\"}\nnot json\n",
		`{"title":"Nowhere","description":"No photo"}` + "\n",
		`{"title":"Retiro","description":"Park"}`,
	}}
	env := newTestEnv(t, mock)
	imgs := &fakeImages{urls: map[string]string{
		"Prado Madrid":  "https://img/prado.jpg",
		"Retiro Madrid": "https://img/retiro.jpg",
	}}
	env.svc.discoverImages = imgs
	sink := newFakeSink()

	err := env.svc.Discover(context.Background(), "Madrid", "en", sink.opener(nil))
	require.NoError(t, err)
	require.Len(t, sink.frames, 2)
	assert.JSONEq(t, `{"title":"Prado","description":"Art","image":"https://img/prado.jpg"}`, sink.frames[0])
	assert.Contains(t, sink.frames[1], "Retiro")
	assert.True(t, sink.done)
	assert.Len(t, imgs.queries, 3)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, string(domain.LLMPurposeDiscover), reqs[0].Purpose)
}

func TestDiscoverStopsAtMaxSuggestions(t *testing.T) {
	var lines []string
	urls := map[string]string{}
	for i := 0; i < 12; i++ {
		title := fmt.Sprintf("Place %d", i)
		lines = append(lines, fmt.Sprintf(`{"title":%q,"description":"d"}`+"\n", title))
		urls[title+" Lisbon"] = "https://img/" + title
	}
	env := newTestEnv(t, &llm.MockClient{Fragments: []string{strings.Join(lines, "")}})
	env.svc.discoverImages = &fakeImages{urls: urls}
	sink := newFakeSink()

	require.NoError(t, env.svc.Discover(context.Background(), "Lisbon", "", sink.opener(nil)))
	assert.Len(t, sink.frames, MaxSuggestions)
	assert.True(t, sink.done)
}

func TestDiscoverRequiresCity(t *testing.T) {
	env := newTestEnv(t, llm.NewMockClient())
	err := env.svc.Discover(context.Background(), " ", "es", newFakeSink().opener(nil))
	var ce *domain.ClientError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, 0, env.mock.StreamCalls())
}

func TestVerifyLocationWithinCity(t *testing.T) {
	env := newTestEnv(t, llm.NewMockClient())
	env.svc.geocoder = &fakeGeocoder{places: map[string]domain.Place{
		"Calle Mayor 1": {FormattedAddress: "Calle Mayor 1, Madrid", Lat: 40.4155, Lng: -3.7074},
		"Madrid":        {FormattedAddress: "Madrid, Spain", Lat: 40.4168, Lng: -3.7038},
		"Barcelona":     {FormattedAddress: "Barcelona, Spain", Lat: 41.3874, Lng: 2.1686},
	}}

	out, err := env.svc.VerifyLocation(context.Background(), domain.VerifyLocationRequest{Address: "Calle Mayor 1", City: "Madrid"})
	require.NoError(t, err)
	require.NotNil(t, out.WithinCity)
	assert.True(t, *out.WithinCity)
	assert.Less(t, *out.DistanceKm, 1.0)

	out, err = env.svc.VerifyLocation(context.Background(), domain.VerifyLocationRequest{Address: "Calle Mayor 1", City: "Barcelona"})
	require.NoError(t, err)
	assert.False(t, *out.WithinCity)
	assert.InDelta(t, 505, *out.DistanceKm, 10)
}

func TestVerifyLocationErrors(t *testing.T) {
	env := newTestEnv(t, llm.NewMockClient())

	_, err := env.svc.VerifyLocation(context.Background(), domain.VerifyLocationRequest{Address: "x"})
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	env.svc.geocoder = &fakeGeocoder{}
	_, err = env.svc.VerifyLocation(context.Background(), domain.VerifyLocationRequest{Address: "nowhere"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	env.svc.geocoder = &fakeGeocoder{err: errors.New("quota")}
	_, err = env.svc.VerifyLocation(context.Background(), domain.VerifyLocationRequest{Address: "x"})
	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "maps", upstream.Provider)
}

func TestCityImage(t *testing.T) {
	env := newTestEnv(t, llm.NewMockClient())
	imgs := &fakeImages{urls: map[string]string{"Porto city": "https://img/porto.jpg"}}
	env.svc.cityImages = imgs

	url, err := env.svc.CityImage(context.Background(), "Porto")
	require.NoError(t, err)
	assert.Equal(t, "https://img/porto.jpg", url)

	_, err = env.svc.CityImage(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, domain.ErrNoImage)
}
