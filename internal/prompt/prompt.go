// Package prompt renders the LLM instructions for every generation endpoint.
// Templates live in prompts.yaml and are compiled once at startup.
package prompt

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/tourify/guide-api/internal/domain"
)

// None is rendered in place of any absent optional parameter.
const None = "none"

// Discovery languages.
const (
	LangES = "es"
	LangEN = "en"
)

//go:embed prompts.yaml
var rawCatalog []byte

// Prompt is a system + user instruction pair.
type Prompt struct {
	System string
	User   string
}

type pair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type catalog struct {
	Guide    pair `yaml:"guide"`
	Activity struct {
		Verify string `yaml:"verify"`
		Create pair   `yaml:"create"`
		Edit   pair   `yaml:"edit"`
		Renew  pair   `yaml:"renew"`
	} `yaml:"activity"`
	Discover map[string]pair `yaml:"discover"`
}

type compiledPair struct {
	system *template.Template
	user   *template.Template
}

var (
	guideTmpl    compiledPair
	verifyTmpl   *template.Template
	createTmpl   compiledPair
	editTmpl     compiledPair
	renewTmpl    compiledPair
	discoverTmpl = map[string]compiledPair{}
)

func init() {
	var c catalog
	if err := yaml.Unmarshal(rawCatalog, &c); err != nil {
		panic(fmt.Sprintf("prompt: parse prompts.yaml: %v", err))
	}
	guideTmpl = compile("guide", c.Guide)
	verifyTmpl = mustParse("activity.verify", c.Activity.Verify)
	createTmpl = compile("activity.create", c.Activity.Create)
	editTmpl = compile("activity.edit", c.Activity.Edit)
	renewTmpl = compile("activity.renew", c.Activity.Renew)
	for lang, p := range c.Discover {
		discoverTmpl[lang] = compile("discover."+lang, p)
	}
	if _, ok := discoverTmpl[LangES]; !ok {
		panic("prompt: missing discover." + LangES)
	}
}

func compile(name string, p pair) compiledPair {
	return compiledPair{
		system: mustParse(name+".system", p.System),
		user:   mustParse(name+".user", p.User),
	}
}

func mustParse(name, text string) *template.Template {
	if strings.TrimSpace(text) == "" {
		panic("prompt: empty template " + name)
	}
	return template.Must(template.New(name).Option("missingkey=error").Parse(text))
}

// execute renders t; the view types are fixed structs, so execution cannot fail.
func execute(t *template.Template, data any) string {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		panic(fmt.Sprintf("prompt: render %s: %v", t.Name(), err))
	}
	return strings.TrimSpace(b.String())
}

func (c compiledPair) render(data any) Prompt {
	return Prompt{System: execute(c.system, data), User: execute(c.user, data)}
}

type guideView struct {
	City             string
	Interests        string
	ArrivalDate      string
	DepartureDate    string
	Transport        string
	Budget           string
	MandatoryStops   string
	ExcludedStops    string
	ActivitiesPerDay int
	Comments         string
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return None
	}
	return s
}

// FormatBudget renders the budget amount followed by the currency, if any.
func FormatBudget(amount *float64, currency string) string {
	if amount == nil {
		return None
	}
	s := strconv.FormatFloat(*amount, 'f', -1, 64)
	if currency = strings.TrimSpace(currency); currency != "" {
		s += " " + currency
	}
	return s
}

// BuildGuide renders the itinerary instructions. Supplied values are
// interpolated verbatim; absent optional values become "none".
func BuildGuide(req domain.GuideRequest) Prompt {
	return guideTmpl.render(guideView{
		City:             req.City,
		Interests:        orNone(req.Interests.String()),
		ArrivalDate:      req.ArrivalDate,
		DepartureDate:    req.DepartureDate,
		Transport:        orNone(req.Transport),
		Budget:           FormatBudget(req.Budget, req.Currency),
		MandatoryStops:   orNone(req.MandatoryStops.String()),
		ExcludedStops:    orNone(req.ExcludedStops.String()),
		ActivitiesPerDay: req.ActivitiesOrDefault(),
		Comments:         orNone(req.Comments),
	})
}

type activityView struct {
	Activity string
	City     string
	Category string
	Existing string
}

// BuildActivityCheck renders the true/false question used before generating an activity.
func BuildActivityCheck(activity, city string) string {
	return execute(verifyTmpl, activityView{Activity: activity, City: city})
}

// BuildCreateActivity renders the instructions for a new named activity.
func BuildCreateActivity(req domain.CreateActivityRequest) Prompt {
	return createTmpl.render(activityView{Activity: req.ActivityName, City: req.CityName})
}

// BuildEditActivity renders the instructions for replacing an activity with a new title.
func BuildEditActivity(req domain.EditActivityRequest) Prompt {
	return editTmpl.render(activityView{Activity: req.NewTitle, City: req.CityName})
}

// BuildRenewActivity renders the instructions for a fresh activity in a category.
func BuildRenewActivity(req domain.RenewActivityRequest) Prompt {
	return renewTmpl.render(activityView{
		City:     req.City,
		Category: req.Category,
		Existing: orNone(strings.Join(req.ExistingActivities, ", ")),
	})
}

// DiscoverLanguage maps a requested language to a supported prompt pack.
func DiscoverLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := discoverTmpl[lang]; ok {
		return lang
	}
	return LangES
}

// BuildDiscover renders the line-delimited suggestion instructions for a city.
func BuildDiscover(city, lang string) Prompt {
	return discoverTmpl[DiscoverLanguage(lang)].render(struct{ City string }{City: city})
}
