package itinerary

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourify/guide-api/internal/domain"
)

func TestEndTime(t *testing.T) {
	tests := []struct {
		start, duration, want string
	}{
		{"09:00", "1.5 horas", "10:30"},
		{"23:15", "2 horas", "01:15"},
		{"10:00", "", "11:00"},
		{"10:00", "unos minutos", "11:00"},
		{"08:30", "45 min", "09:15"},
		{"12:00", "2,5 hours", "14:30"},
		{"12:00", "2.3 h", "14:18"},
		{"9:05", "1", "10:05"},
		{"23:59", "0.02 horas", "00:00"},
		{"", "2 horas", ""},
		{"late", "2 horas", "late"},
	}
	for _, tt := range tests {
		t.Run(tt.start+"+"+tt.duration, func(t *testing.T) {
			assert.Equal(t, tt.want, EndTime(tt.start, tt.duration))
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, domain.CategoryCultural, NormalizeCategory("Cultural"))
	assert.Equal(t, domain.CategoryCultural, NormalizeCategory("museo"))
	assert.Equal(t, domain.CategoryCultural, NormalizeCategory("Monumento"))
	assert.Equal(t, domain.CategoryRestaurant, NormalizeCategory("restaurante"))
	assert.Equal(t, domain.CategoryRestaurant, NormalizeCategory("Comida"))
	assert.Equal(t, domain.CategoryOther, NormalizeCategory("otros"))
	assert.Equal(t, domain.CategoryOther, NormalizeCategory("paseo"))
	assert.Equal(t, domain.CategoryOther, NormalizeCategory(""))
}

func TestNormalizeActivitySpanishAliases(t *testing.T) {
	a := NormalizeActivity(RawActivity{
		"nombre":      "Torre de Belém",
		"hora_inicio": "09:00",
		"duracion":    "1.5 horas",
		"precio":      "10 €",
		"tipo":        "monumento",
		"descripcion": "Torre defensiva del siglo XVI.",
	})

	assert.Equal(t, domain.Activity{
		Name:        "Torre de Belém",
		StartTime:   "09:00",
		EndTime:     "10:30",
		Price:       10,
		Location:    LocationFallback,
		Category:    domain.CategoryCultural,
		Description: "Torre defensiva del siglo XVI.",
	}, a)
}

func TestNormalizeActivityKeepsSuppliedEndTime(t *testing.T) {
	a := NormalizeActivity(RawActivity{
		"name":       "Lunch",
		"start_time": "14:00",
		"end_time":   "15:30",
		"duration":   "3 hours",
		"price":      22.5,
		"location":   "Time Out Market",
		"category":   "restaurant",
	})
	assert.Equal(t, "15:30", a.EndTime)
	assert.Equal(t, 22.5, a.Price)
	assert.Equal(t, "Time Out Market", a.Location)
}

func TestNormalizeActivityUnparseablePrice(t *testing.T) {
	a := NormalizeActivity(RawActivity{"name": "Walk", "start_time": "10:00", "price": "free"})
	assert.Zero(t, a.Price)
	assert.Equal(t, "11:00", a.EndTime)
}

const lisbonBuffer = `{"itinerary":[
 {"date":"2025-05-02","activities":[{"name":"Alfama","start_time":"10:00","duration":"2 hours","price":"0","location":"Alfama","category":"other","description":"Walk."}]},
 {"date":"2025-05-01","activities":[{"name":"Belém","start_time":"09:00","duration":"1.5 horas","price":"10 EUR","category":"museo","description":"Tower."}]}
]}`

func TestReconcileOrdersDaysByDate(t *testing.T) {
	days, err := Reconcile(lisbonBuffer)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-05-01", days[0].Date)
	assert.Equal(t, "2025-05-02", days[1].Date)
	assert.Equal(t, "10:30", days[0].Activities[0].EndTime)
	assert.Equal(t, LocationFallback, days[0].Activities[0].Location)
	assert.Equal(t, "12:00", days[1].Activities[0].EndTime)
}

func TestReconcileIsIdempotent(t *testing.T) {
	first, err := Reconcile(lisbonBuffer)
	require.NoError(t, err)
	second, err := Reconcile(lisbonBuffer)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestReconcileSpanishShapeAndFences(t *testing.T) {
	buffer := "```json\n" + `{"itinerario":[{"fecha":"2025-05-01","actividades":[{"nombre":"Cena","hora_inicio":"21:00","precio":30,"transporte":"Bairro Alto","tipo":"restaurante"}]}]}` + "\n```"
	days, err := Reconcile(buffer)
	require.NoError(t, err)
	require.Len(t, days, 1)
	a := days[0].Activities[0]
	assert.Equal(t, "Cena", a.Name)
	assert.Equal(t, "22:00", a.EndTime)
	assert.Equal(t, "Bairro Alto", a.Location)
	assert.Equal(t, domain.CategoryRestaurant, a.Category)
}

func TestReconcileMergesDuplicateDates(t *testing.T) {
	buffer := `{"itinerary":[{"date":"2025-05-01","activities":[{"name":"A"}]},{"date":"2025-05-01","activities":[{"name":"B"}]}]}`
	days, err := Reconcile(buffer)
	require.NoError(t, err)
	require.Len(t, days, 1)
	require.Len(t, days[0].Activities, 2)
	assert.Equal(t, "A", days[0].Activities[0].Name)
	assert.Equal(t, "B", days[0].Activities[1].Name)
}

func TestReconcileFailures(t *testing.T) {
	for name, buffer := range map[string]string{
		"invalid json":       "{not json",
		"empty":              "",
		"missing key":        `{"days":[]}`,
		"itinerary object":   `{"itinerario":{}}`,
		"missing date":       `{"itinerary":[{"activities":[]}]}`,
		"slashed date":       `{"itinerary":[{"date":"2025-05-01"},{"date":"2025/05/02"}]}`,
		"prose date":         `{"itinerary":[{"date":"May 1st"}]}`,
		"activities object":  `{"itinerary":[{"date":"2025-05-01","activities":{}}]}`,
		"top level is array": `[{"date":"2025-05-01"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			days, err := Reconcile(buffer)
			assert.Nil(t, days)
			var recErr *domain.ReconciliationError
			assert.True(t, errors.As(err, &recErr), "got %v", err)
		})
	}
}

func TestParseActivity(t *testing.T) {
	a, err := ParseActivity(`Here you go: {"nombre":"Park Güell","hora_inicio":"10:00","hora_fin":"12:00","precio":"13 €","ubicacion":"Carrer d'Olot","categoria":"Cultural","descripcion":"Gaudí park with mosaics."}`)
	require.NoError(t, err)
	assert.Equal(t, "Park Güell", a.Name)
	assert.Equal(t, "12:00", a.EndTime)
	assert.Equal(t, 13.0, a.Price)
	assert.Equal(t, domain.CategoryCultural, a.Category)
}

func TestParseActivityRejectsMissingFields(t *testing.T) {
	_, err := ParseActivity(`{"name":"X","start_time":"10:00"}`)
	var recErr *domain.ReconciliationError
	require.True(t, errors.As(err, &recErr))
	assert.Contains(t, recErr.Reason, "end_time")
	assert.Contains(t, recErr.Reason, "description")
}

func TestParseActivityRejectsLongDescription(t *testing.T) {
	_, err := ParseActivity(`{"name":"X","start_time":"10:00","end_time":"11:00","price":1,"location":"Y","category":"other","description":"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty twentyone"}`)
	var recErr *domain.ReconciliationError
	require.True(t, errors.As(err, &recErr))
	assert.Contains(t, recErr.Reason, "21 words")
}
