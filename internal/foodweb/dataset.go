package foodweb

import (
	"fmt"
	"strings"
)

// Dataset is the configuration a FoodWeb is built from: four ordered tier lists
// and an ordered list of predation edges.
type Dataset struct {
	// Name identifies the dataset in stores and reports.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Producers          []string `json:"producers" yaml:"producers"`
	PrimaryConsumers   []string `json:"primary_consumers" yaml:"primary_consumers"`
	SecondaryConsumers []string `json:"secondary_consumers" yaml:"secondary_consumers"`
	TertiaryConsumers  []string `json:"tertiary_consumers" yaml:"tertiary_consumers"`

	// Edges lists the predation edges, prey first.
	Edges []PredationEdge `json:"edges" yaml:"edges"`
}

// DefaultName is the name of the built-in dataset.
const DefaultName = "ecosystem"

// Default returns the built-in ecosystem dataset. Each call returns a fresh copy.
func Default() Dataset {
	return Dataset{
		Name:               DefaultName,
		Producers:          []string{"Grass"},
		PrimaryConsumers:   []string{"Rabbit", "Deer", "Frog"},
		SecondaryConsumers: []string{"Snake", "Eagle"},
		TertiaryConsumers:  []string{"Tiger", "Lion"},
		Edges: []PredationEdge{
			{Prey: "Grass", Predator: "Rabbit"},
			{Prey: "Grass", Predator: "Deer"},
			{Prey: "Rabbit", Predator: "Snake"},
			{Prey: "Rabbit", Predator: "Eagle"},
			{Prey: "Frog", Predator: "Snake"},
			{Prey: "Deer", Predator: "Tiger"},
			{Prey: "Snake", Predator: "Eagle"},
			{Prey: "Snake", Predator: "Tiger"},
			{Prey: "Tiger", Predator: "Lion"},
			{Prey: "Eagle", Predator: "Lion"},
		},
	}
}

// Tier returns the organism names listed for t.
func (d Dataset) Tier(t Tier) []string {
	switch t {
	case Producer:
		return d.Producers
	case PrimaryConsumer:
		return d.PrimaryConsumers
	case SecondaryConsumer:
		return d.SecondaryConsumers
	case TertiaryConsumer:
		return d.TertiaryConsumers
	default:
		return nil
	}
}

// Clone returns a deep copy of the dataset.
func (d Dataset) Clone() Dataset {
	return Dataset{
		Name:               d.Name,
		Producers:          cloneStrings(d.Producers),
		PrimaryConsumers:   cloneStrings(d.PrimaryConsumers),
		SecondaryConsumers: cloneStrings(d.SecondaryConsumers),
		TertiaryConsumers:  cloneStrings(d.TertiaryConsumers),
		Edges:              append([]PredationEdge(nil), d.Edges...),
	}
}

// Validate checks that the tiers partition the organism set and that every edge
// joins two distinct known organisms. The first problem found is returned.
func (d Dataset) Validate() error {
	seen := make(map[string]Tier)
	for _, t := range Tiers() {
		for _, name := range d.Tier(t) {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("%s: %w", t.Key(), ErrEmptyName)
			}
			if prev, ok := seen[name]; ok {
				return fmt.Errorf("%w: %q in %s and %s", ErrDuplicateOrganism, name, prev.Key(), t.Key())
			}
			seen[name] = t
		}
	}

	edges := make(map[PredationEdge]bool, len(d.Edges))
	for _, e := range d.Edges {
		for _, name := range []string{e.Prey, e.Predator} {
			if _, ok := seen[name]; !ok {
				return fmt.Errorf("edge %s: %w %q", e, ErrUnknownOrganism, name)
			}
		}
		if e.Prey == e.Predator {
			return fmt.Errorf("edge %s: %w", e, ErrSelfLoop)
		}
		if edges[e] {
			return fmt.Errorf("edge %s: %w", e, ErrDuplicateEdge)
		}
		edges[e] = true
	}
	return nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
