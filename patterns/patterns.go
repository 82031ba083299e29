// Package patterns derives fields from transcript text using deterministic
// regular expressions, independent of the extraction service. Its findings
// supplement the service output; they never replace it.
package patterns

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultCarModels is the built-in dictionary of known model names. Matching
// is case-insensitive on word boundaries; the canonical dictionary spelling
// is reported.
var DefaultCarModels = []string{
	"Nexon", "Punch", "Tiago", "Tigor", "Altroz", "Harrier", "Safari",
	"Curvv", "Tata EV", "Nexon EV", "Punch EV", "Mahindra", "Rolls Royce",
	"XUV", "Scorpio", "Thar", "Bolero",
}

// Findings holds every pattern-derived field for one transcript. Sequences
// are ordered by first appearance in the text and may be empty.
type Findings struct {
	PhoneNumbers []string `json:"regex_phone_numbers"`
	Amounts      []string `json:"regex_amounts"`
	CarModels    []string `json:"regex_car_models"`
	Dates        []string `json:"regex_dates"`
}

var (
	// 10 digits, optionally with a +91/91 country code, or split into
	// 5-5 / 3-3-4 groups.
	phoneRe = regexp.MustCompile(`(?:\+?91[\s-])?\b\d{10}\b|\b\d{5}[\s-]\d{5}\b|\b\d{3}[\s-]\d{3}[\s-]\d{4}\b`)

	// Rupee-symbol amounts with an optional magnitude word, or bare numbers
	// followed by rupees/lakh/crore/thousand. The matched substring is
	// reported verbatim; no reformatting.
	amountRe = regexp.MustCompile(`(?i)₹\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:lakhs?|crores?|thousands?))?|\b\d[\d,]*(?:\.\d+)?\s?(?:rupees?|lakhs?|crores?|thousands?)\b`)

	// DD/MM/YYYY-shaped substrings. No calendar validation: 31/02/2024 is
	// still a match.
	dateRe = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
)

// Extractor runs all sub-extractors over a transcript. The model dictionary
// is fixed at construction; Extract is pure and safe for concurrent use.
type Extractor struct {
	models   []string
	modelRes []*regexp.Regexp
}

// New builds an Extractor with the default dictionary plus any extra models.
func New(extraModels ...string) *Extractor {
	models := make([]string, 0, len(DefaultCarModels)+len(extraModels))
	models = append(models, DefaultCarModels...)
	models = append(models, extraModels...)

	e := &Extractor{models: models}
	for _, m := range models {
		e.modelRes = append(e.modelRes, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(m)+`\b`))
	}
	return e
}

// Extract derives all pattern findings from text. Absence of matches yields
// empty sequences, never an error.
func (e *Extractor) Extract(text string) Findings {
	return Findings{
		PhoneNumbers: extractPhones(text),
		Amounts:      amountRe.FindAllString(text, -1),
		CarModels:    e.extractModels(text),
		Dates:        dateRe.FindAllString(text, -1),
	}
}

// extractPhones reports phone matches verbatim, deduplicated by their digit
// content in order of first appearance.
func extractPhones(text string) []string {
	var phones []string
	seen := make(map[string]bool)
	for _, m := range phoneRe.FindAllString(text, -1) {
		key := normalizePhone(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		phones = append(phones, m)
	}
	return phones
}

// normalizePhone strips separators and a leading country code or trunk zero
// so that differently formatted mentions of one number collapse together.
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) == 12 && strings.HasPrefix(d, "91") {
		d = d[2:]
	}
	if len(d) == 11 && strings.HasPrefix(d, "0") {
		d = d[1:]
	}
	return d
}

func (e *Extractor) extractModels(text string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for i, re := range e.modelRes {
		if loc := re.FindStringIndex(text); loc != nil {
			hits = append(hits, hit{pos: loc[0], name: e.models[i]})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].pos < hits[b].pos })

	var models []string
	seen := make(map[string]bool)
	for _, h := range hits {
		if seen[h.name] {
			continue
		}
		seen[h.name] = true
		models = append(models, h.name)
	}
	return models
}
