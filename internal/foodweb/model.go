// Package foodweb provides the food web model: organisms grouped into trophic
// tiers and the predation edges between them.
//
// A FoodWeb is built once from a Dataset and never changes afterwards. All
// queries are pure functions of the dataset, so a FoodWeb can be shared freely
// between goroutines.
package foodweb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a query names an organism that is not part of the web.
	ErrNotFound = errors.New("organism not found")

	// ErrUnknownOrganism is returned when an edge references an organism absent from every tier.
	ErrUnknownOrganism = errors.New("edge references unknown organism")

	// ErrDuplicateOrganism is returned when an organism is listed more than once.
	ErrDuplicateOrganism = errors.New("organism listed more than once")

	// ErrEmptyName is returned when an organism name is blank.
	ErrEmptyName = errors.New("empty organism name")

	// ErrSelfLoop is returned when an organism is listed as its own predator.
	ErrSelfLoop = errors.New("organism cannot prey on itself")

	// ErrDuplicateEdge is returned when the same predation edge is listed twice.
	ErrDuplicateEdge = errors.New("duplicate predation edge")

	// ErrUnknownTier is returned by ParseTier for unrecognised tier names.
	ErrUnknownTier = errors.New("unknown tier")
)

// Tier is the trophic level of an organism.
type Tier int

// Tiers ordered top-to-bottom for layout purposes.
const (
	Producer Tier = iota
	PrimaryConsumer
	SecondaryConsumer
	TertiaryConsumer
)

// tierCount is the number of defined tiers.
const tierCount = 4

var tierLabels = [tierCount]string{
	"Producers",
	"Primary Consumers",
	"Secondary Consumers",
	"Tertiary Consumers",
}

var tierKeys = [tierCount]string{
	"producers",
	"primary_consumers",
	"secondary_consumers",
	"tertiary_consumers",
}

// Tiers returns all tiers in order.
func Tiers() []Tier {
	return []Tier{Producer, PrimaryConsumer, SecondaryConsumer, TertiaryConsumer}
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t >= Producer && t <= TertiaryConsumer
}

// String returns the display label, e.g. "Primary Consumers".
func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierLabels[t]
}

// Key returns the snake_case key used in dataset files, e.g. "primary_consumers".
func (t Tier) Key() string {
	if !t.Valid() {
		return fmt.Sprintf("tier_%d", int(t))
	}
	return tierKeys[t]
}

// Level returns the default vertical position of the tier in a trophic layout.
// Producers sit at the top (2) and tertiary consumers at the bottom (-1).
func (t Tier) Level() float64 {
	return float64(2 - int(t))
}

// ParseTier resolves a tier from its key, its display label or its index.
// Matching is case-insensitive.
func ParseTier(s string) (Tier, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, t := range Tiers() {
		if norm == tierKeys[t] || norm == strings.ToLower(tierLabels[t]) || norm == fmt.Sprint(int(t)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Organism is a member of the food web.
type Organism struct {
	// Name is the unique identifier of the organism.
	Name string `json:"name" yaml:"name"`

	// Tier is the trophic level the organism belongs to.
	Tier Tier `json:"tier" yaml:"tier"`
}

// PredationEdge is a directed feeding relationship, from the organism being
// consumed to its consumer.
type PredationEdge struct {
	// Prey is the organism being consumed.
	Prey string `json:"prey" yaml:"prey"`

	// Predator is the consuming organism.
	Predator string `json:"predator" yaml:"predator"`
}

// String returns "prey -> predator".
func (e PredationEdge) String() string {
	return e.Prey + " -> " + e.Predator
}

// MarshalText encodes the tier as its key.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(t.Key()), nil
}

// UnmarshalText decodes a tier from anything ParseTier accepts.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
