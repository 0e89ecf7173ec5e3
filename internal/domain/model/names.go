package model

import (
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"strings"
	"unicode"
)

// NormalizeName folds case and diacritics, turns punctuation into spaces and
// collapses whitespace: "Nuevo León" and " nuevo  leon. " both become
// "NUEVO LEON".
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// StateResolver maps any accepted spelling of a state to its canonical
// normalized name.
type StateResolver struct {
	canonical map[string]string
	variants  map[string][]string
}

func NewStateResolver(aliases map[string][]string) *StateResolver {
	r := &StateResolver{
		canonical: make(map[string]string),
		variants:  make(map[string][]string),
	}
	for state, alts := range aliases {
		name := NormalizeName(state)
		r.canonical[name] = name
		r.variants[name] = append(r.variants[name], name)
		for _, alt := range alts {
			a := NormalizeName(alt)
			if _, taken := r.canonical[a]; taken && a != name {
				continue
			}
			r.canonical[a] = name
			r.variants[name] = append(r.variants[name], a)
		}
	}
	return r
}

// Resolve returns the canonical name of estado, or false when it is unknown.
func (r *StateResolver) Resolve(estado string) (string, bool) {
	name, ok := r.canonical[NormalizeName(estado)]
	return name, ok
}

// Variants lists every normalized spelling that belongs to the canonical state.
func (r *StateResolver) Variants(canonical string) []string {
	return r.variants[canonical]
}
