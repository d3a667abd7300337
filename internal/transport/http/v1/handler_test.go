package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/adapter/auth"
	"github.com/tourify/guide-api/internal/adapter/llm"
	"github.com/tourify/guide-api/internal/config"
	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/repository"
	"github.com/tourify/guide-api/internal/service"
	"github.com/tourify/guide-api/policy"
	"github.com/tourify/guide-api/tests/helpers"
)

const testSecret = "test-secret"

type staticImages map[string]string

func (s staticImages) Search(_ context.Context, query string) (string, error) {
	if url, ok := s[query]; ok {
		return url, nil
	}
	return "", domain.ErrNoImage
}

type testServer struct {
	e      *echo.Echo
	h      *Handler
	mock   *llm.MockClient
	guides *repository.GuideRepository
	cfg    *config.Config
}

func newTestServer(t *testing.T, mock *llm.MockClient) *testServer {
	t.Helper()
	store := helpers.NewTestStore(t)
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	cfg := &config.Config{Env: "development", Model: "test-model", DeviceDailyLimit: 3, LLMTimeout: 5 * time.Second}
	guides := repository.NewGuideRepository(store)
	svc := service.New(service.Dependencies{
		LLM:            mock,
		Guides:         guides,
		Devices:        repository.NewDeviceRepository(store),
		Calls:          repository.NewLLMCallRepository(store),
		Policy:         engine,
		CityImages:     staticImages{"Lisbon city": "https://img/lisbon.jpg"},
		DiscoverImages: staticImages{"Belem Tower Lisbon": "https://img/belem.jpg"},
	}, cfg, nil)

	h := NewHandler(svc, auth.NewVerifier(testSecret), cfg, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return &testServer{e: e, h: h, mock: mock, guides: guides, cfg: cfg}
}

func signedToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func (s *testServer) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test-agent")
	if authed {
		req.Header.Set("Authorization", "Bearer "+signedToken(t))
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

const guideBody = `{"guideId":"g1","city":"Madrid","arrivalDate":"2025-05-01","departureDate":"2025-05-01","budget":"300 EUR"}`

func TestHealth(t *testing.T) {
	e := echo.New()
	s := newTestServer(t, llm.NewMockClient())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := s.h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "API running") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestCreateGuideRequiresToken(t *testing.T) {
	s := newTestServer(t, llm.NewMockClient())

	rec := s.do(t, http.MethodPost, "/createGuide", guideBody, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/createGuide", strings.NewReader(guideBody))
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", rec.Code)
	}
	if s.mock.CompletionCalls() != 0 {
		t.Fatalf("expected no LLM call")
	}
}

func TestCreateGuideValidation(t *testing.T) {
	s := newTestServer(t, llm.NewMockClient())

	rec := s.do(t, http.MethodPost, "/createGuide", `{"city":"Madrid","arrivalDate":"2025-05-01","departureDate":"2025-05-02"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Field != "budget" {
		t.Fatalf("expected budget field, got %+v", body)
	}
	if s.mock.CompletionCalls() != 0 {
		t.Fatalf("expected no LLM call")
	}
}

func TestCreateGuideJSON(t *testing.T) {
	mock := &llm.MockClient{Responses: []string{`{"itinerary":[{"date":"2025-05-01","activities":[]}]}`}}
	s := newTestServer(t, mock)

	rec := s.do(t, http.MethodPost, "/createGuide", guideBody, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"data"`
		Itinerary []domain.Day `json:"itinerary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data.Role != "assistant" || len(body.Itinerary) != 1 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCreateGuideStreaming(t *testing.T) {
	mock := &llm.MockClient{Fragments: []string{`{"itinerary":`, `[]}`}}
	s := newTestServer(t, mock)

	rec := s.do(t, http.MethodPost, "/createGuide?stream=true", guideBody, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	want := "data: {\"content\":\"{\\\"itinerary\\\":\"}\n\ndata: {\"content\":\"[]}\"}\n\ndata: [DONE]\n\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected stream:\n%q\nwant\n%q", rec.Body.String(), want)
	}
}

func TestCreateGuideUpstreamError(t *testing.T) {
	s := newTestServer(t, &llm.MockClient{CompleteErr: errors.New("provider down")})

	rec := s.do(t, http.MethodPost, "/createGuide", guideBody, true)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "provider down") {
		t.Fatalf("expected details outside production: %s", rec.Body.String())
	}

	s.cfg.Env = "production"
	rec = s.do(t, http.MethodPost, "/createGuide", guideBody, true)
	if strings.Contains(rec.Body.String(), "provider down") {
		t.Fatalf("details leaked in production: %s", rec.Body.String())
	}
}

func TestAnonymousGuideStreamsAndPersists(t *testing.T) {
	mock := &llm.MockClient{Fragments: []string{
		`{"itinerary":[{"date":"2025-05-01","activities":[{"name":"Prado","start_time":"10:00","duration":"1.5 hours",`,
		`"price":15,"location":"Prado","category":"cultural","description":"Art."}]}]}`,
	}}
	s := newTestServer(t, mock)

	rec := s.do(t, http.MethodPost, "/anonymous/generateGuide", guideBody, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.HasSuffix(rec.Body.String(), "data: [DONE]\n\n") {
		t.Fatalf("expected [DONE] terminator, got %q", rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/anonymous/guides/g1", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Guide domain.Guide `json:"guide"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Guide.Status != domain.GuideStatusCompleted {
		t.Fatalf("expected completed, got %s", body.Guide.Status)
	}
	if len(body.Guide.Days) != 1 || body.Guide.Days[0].Activities[0].EndTime != "11:30" {
		t.Fatalf("unexpected days %+v", body.Guide.Days)
	}
}

func TestAnonymousGuideOtherDeviceCannotRead(t *testing.T) {
	s := newTestServer(t, llm.NewMockClient())
	if err := s.guides.CreatePending(context.Background(), &domain.Guide{GuideID: "g9", DeviceFingerprint: "someone-else"}); err != nil {
		t.Fatalf("CreatePending: %v", err)
	}

	rec := s.do(t, http.MethodGet, "/anonymous/guides/g9", "", false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAnonymousGuideBlockedAfterDailyLimit(t *testing.T) {
	s := newTestServer(t, llm.NewMockClient())

	probe := httptest.NewRequest(http.MethodPost, "/anonymous/generateGuide", nil)
	probe.Header.Set("User-Agent", "test-agent")
	fp := DeviceFingerprint(probe, "192.0.2.1")
	for _, id := range []string{"a", "b", "c"} {
		if err := s.guides.CreatePending(context.Background(), &domain.Guide{GuideID: id, DeviceFingerprint: fp}); err != nil {
			t.Fatalf("CreatePending: %v", err)
		}
	}

	rec := s.do(t, http.MethodPost, "/anonymous/generateGuide", guideBody, false)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") == "text/event-stream; charset=utf-8" {
		t.Fatalf("stream headers sent before denial")
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Blocked || body.Success || body.Error != "device blocked" {
		t.Fatalf("unexpected body %+v", body)
	}
	if s.mock.StreamCalls() != 0 {
		t.Fatalf("expected no LLM stream")
	}
}

func TestAnonymousGuideBlockedByFingerprintHeader(t *testing.T) {
	s := newTestServer(t, llm.NewMockClient())
	for _, id := range []string{"a", "b", "c"} {
		if err := s.guides.CreatePending(context.Background(), &domain.Guide{GuideID: id, DeviceFingerprint: "client-fp"}); err != nil {
			t.Fatalf("CreatePending: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/anonymous/generateGuide", strings.NewReader(guideBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderDeviceFingerprint, "  client-fp ")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", rec.Code, rec.Body.String())
	}
	if s.mock.StreamCalls() != 0 {
		t.Fatalf("expected no LLM stream")
	}
}

func TestAnonymousGuideRejectsExistingGuideID(t *testing.T) {
	s := newTestServer(t, llm.NewMockClient())
	if err := s.guides.CreatePending(context.Background(), &domain.Guide{GuideID: "g1", DeviceFingerprint: "someone-else"}); err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	if err := s.guides.MarkCompleted(context.Background(), "g1"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	rec := s.do(t, http.MethodPost, "/anonymous/generateGuide", guideBody, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Field != "guideId" {
		t.Fatalf("unexpected body %+v", body)
	}

	guide, err := s.guides.Get(context.Background(), "g1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if guide.Status != domain.GuideStatusCompleted || guide.DeviceFingerprint != "someone-else" {
		t.Fatalf("existing guide changed: %+v", guide)
	}
}

func TestCreateActivityOutsideCity(t *testing.T) {
	s := newTestServer(t, &llm.MockClient{Responses: []string{"false"}})

	rec := s.do(t, http.MethodPost, "/createActivity", `{"activityName":"Eiffel Tower","cityName":"Madrid"}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"metrics"`) {
		t.Fatalf("expected metrics in body: %s", rec.Body.String())
	}
}

func TestCreateActivitySuccess(t *testing.T) {
	activity := `{"name":"Prado","start_time":"10:00","end_time":"12:00","price":15,"location":"Prado","category":"cultural","description":"Art."}`
	s := newTestServer(t, &llm.MockClient{Responses: []string{"true", activity}})

	rec := s.do(t, http.MethodPost, "/createActivity", `{"activityName":"Prado","cityName":"Madrid"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body activityResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Name != "Prado" || body.Data.City != "Madrid" {
		t.Fatalf("unexpected activity %+v", body.Data)
	}
}

func TestDiscoverStreamsEnrichedSuggestions(t *testing.T) {
	mock := &llm.MockClient{Fragments: []string{
		"{\"title\":\"Belem Tower\",\"description\":\"Fortress\"}\n",
		"{\"title\":\"Unknown\",\"description\":\"No image\"}\n",
	}}
	s := newTestServer(t, mock)

	rec := s.do(t, http.MethodGet, "/discover/Lisbon/en", "", false)
	want := "data: {\"title\":\"Belem Tower\",\"description\":\"Fortress\",\"image\":\"https://img/belem.jpg\"}\n\ndata: [DONE]\n\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected stream:\n%q", rec.Body.String())
	}
}

func TestCityImage(t *testing.T) {
	s := newTestServer(t, llm.NewMockClient())

	rec := s.do(t, http.MethodGet, "/cityImage?city=Lisbon", "", true)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "https://img/lisbon.jpg") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/cityImage?city=Atlantis", "", true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestVerifyLocationNotConfigured(t *testing.T) {
	s := newTestServer(t, llm.NewMockClient())

	rec := s.do(t, http.MethodPost, "/verify-location", `{"address":"Calle Mayor 1"}`, true)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}
