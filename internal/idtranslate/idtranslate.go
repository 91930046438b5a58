package idtranslate

import "strings"

type Pair struct {
	Alias   string
	Backend string
}

// Translator maps aliases to canonical backend ids and back. Lookups are
// case-insensitive; unknown values pass through unchanged.
type Translator struct {
	toBackend  map[string]string
	toFrontend map[string]string
}

func NewTranslator(pairs []Pair) Translator {
	t := Translator{
		toBackend:  make(map[string]string, len(pairs)),
		toFrontend: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		t.toBackend[strings.ToLower(p.Alias)] = p.Backend
		t.toFrontend[strings.ToLower(p.Backend)] = p.Alias
	}
	return t
}

func (t Translator) ToBackend(alias string) string {
	if id, ok := t.toBackend[strings.ToLower(alias)]; ok {
		return id
	}
	return alias
}

func (t Translator) ToFrontend(id string) string {
	if alias, ok := t.toFrontend[strings.ToLower(id)]; ok {
		return alias
	}
	return id
}

var Products = NewTranslator([]Pair{
	{Alias: "prd-dragon", Backend: "8e0cddde-6dc9-49f5-9a6b-111111111111"},
	{Alias: "prd-blueberry", Backend: "d49f7a55-3f27-4cb0-8a40-222222222222"},
	{Alias: "prd-avocado", Backend: "6cb33c0b-dcc5-44c0-90a5-333333333333"},
})

var Partners = NewTranslator([]Pair{
	{Alias: "partner-hn", Backend: "33333333-3333-3333-3333-333333333331"},
	{Alias: "partner-yx", Backend: "33333333-3333-3333-3333-333333333332"},
	{Alias: "partner-sc", Backend: "33333333-3333-3333-3333-333333333333"},
	{Alias: "partner-b2b", Backend: "33333333-3333-3333-3333-333333333334"},
})

func ProductToBackend(alias string) string { return Products.ToBackend(alias) }
func ProductToFrontend(id string) string   { return Products.ToFrontend(id) }
func PartnerToBackend(alias string) string { return Partners.ToBackend(alias) }
func PartnerToFrontend(id string) string   { return Partners.ToFrontend(id) }
