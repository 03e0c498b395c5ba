// Package formulas serves the explanation and sample SQL behind each view.
package formulas

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

//go:embed content/*.md
var content embed.FS

var ErrUnknownContext = errors.New("unknown formula context")

// Context keys, in the order views appear.
const (
	Decliners        = "decliners"
	Growers          = "growers"
	OnePagerHeadline = "onepager_headline"
	OnePagerPVM      = "onepager_pvm"
	OnePagerReturns  = "onepager_returns"
	OnePagerGeo      = "onepager_geo"
	OnePagerCadence  = "onepager_cadence"
)

var contexts = []string{Decliners, Growers, OnePagerHeadline, OnePagerPVM, OnePagerReturns, OnePagerGeo, OnePagerCadence}

type Formula struct {
	Context string `json:"context"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// Registry holds every formula, loaded once.
type Registry struct {
	byContext map[string]Formula
}

func NewRegistry() (*Registry, error) {
	return load(content)
}

func load(fsys fs.FS) (*Registry, error) {
	r := &Registry{byContext: make(map[string]Formula, len(contexts))}
	for _, key := range contexts {
		raw, err := fs.ReadFile(fsys, "content/"+key+".md")
		if err != nil {
			return nil, fmt.Errorf("load formula %s: %w", key, err)
		}
		body := strings.TrimSpace(string(raw))
		title, _, _ := strings.Cut(body, "\n")
		r.byContext[key] = Formula{Context: key, Title: strings.TrimSpace(strings.TrimPrefix(title, "#")), Body: body}
	}
	return r, nil
}

// Contexts lists the known context keys.
func (r *Registry) Contexts() []string {
	return append([]string(nil), contexts...)
}

func (r *Registry) Lookup(context string) (Formula, error) {
	f, ok := r.byContext[strings.ToLower(strings.TrimSpace(context))]
	if !ok {
		return Formula{}, fmt.Errorf("%w: %q", ErrUnknownContext, context)
	}
	return f, nil
}
