// Package location validates raw location queries and derives the display name
// and cache key used by the rest of the client.
package location

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	MinLength = 2
	MaxLength = 100
)

// Key is the case-insensitive identifier of a searched place. It is used as
// the cache and in-flight key; the display name is kept separately.
type Key string

// Query is a validated location query.
type Query struct {
	Raw     string
	Display string
	Key     Key
}

// Result is the outcome of Validate.
type Result struct {
	Valid   bool
	Message string
}

// ValidationError is returned by Parse when the raw query is rejected.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	spaceRun = regexp.MustCompile(`\s+`)
	punctRun = regexp.MustCompile(`([-'.])[-'.]+`)

	allowedChars  = regexp.MustCompile(`^[\p{L} \-'.]+$`)
	repeatedSpace = regexp.MustCompile(` {2,}`)
	repeatedPunct = regexp.MustCompile(`[-'.]{2,}`)
)

// abbreviations expands standalone title-cased tokens.
var abbreviations = map[string]string{
	"St": "St.",
	"Mt": "Mt.",
	"Ft": "Ft.",
}

var messages = map[string]string{
	"required":    "Please enter a location.",
	"min":         "Location must be at least 2 characters long.",
	"max":         "Location must be 100 characters or fewer.",
	"locchars":    "Location can only contain letters, spaces, hyphens, apostrophes and periods.",
	"nospaceruns": "Invalid location format: remove repeated spaces.",
	"nopunctruns": "Invalid location format: remove repeated punctuation.",
}

type rawQuery struct {
	Value string `validate:"required,min=2,max=100,locchars,nospaceruns,nopunctruns"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("locchars", func(fl validator.FieldLevel) bool {
		return allowedChars.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nospaceruns", func(fl validator.FieldLevel) bool {
		return !repeatedSpace.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("nopunctruns", func(fl validator.FieldLevel) bool {
		return !repeatedPunct.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks a raw query without touching the network.
func Validate(raw string) Result {
	err := validate.Struct(rawQuery{Value: strings.TrimSpace(raw)})
	if err == nil {
		return Result{Valid: true}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		if msg, ok := messages[verrs[0].Tag()]; ok {
			return Result{Message: msg}
		}
	}
	return Result{Message: "Invalid location."}
}

// Normalize produces the display form of a query: trimmed, single-spaced,
// punctuation runs collapsed, title-cased, with St/Mt/Ft abbreviations
// given their trailing period. Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = spaceRun.ReplaceAllString(s, " ")
	s = punctRun.ReplaceAllString(s, "$1")
	// Casers hold state and must not be shared between goroutines.
	s = cases.Title(language.Und).String(s)

	words := strings.Split(s, " ")
	for i, w := range words {
		if exp, ok := abbreviations[w]; ok {
			words[i] = exp
		}
	}
	return strings.Join(words, " ")
}

// KeyOf folds the trimmed query so that inputs differing only in case or in
// the St/Mt/Ft abbreviation period map to the same key.
func KeyOf(raw string) Key {
	s := spaceRun.ReplaceAllString(strings.TrimSpace(raw), " ")
	words := strings.Split(cases.Fold().String(s), " ")
	for i, w := range words {
		switch w {
		case "st.", "mt.", "ft.":
			words[i] = strings.TrimSuffix(w, ".")
		}
	}
	return Key(strings.Join(words, " "))
}

// Parse validates raw and returns the display name and key.
func Parse(raw string) (Query, error) {
	if res := Validate(raw); !res.Valid {
		return Query{}, &ValidationError{Message: res.Message}
	}
	return Query{
		Raw:     raw,
		Display: Normalize(raw),
		Key:     KeyOf(raw),
	}, nil
}
