package foodweb

import (
	"errors"
	"fmt"

	"github.com/Benny93/foodweb-go/internal/graph"
)

// FoodWeb is an immutable directed graph of organisms and predation edges.
type FoodWeb struct {
	dataset Dataset
	graph   *graph.Digraph
	tiers   map[string]Tier
}

// New builds a FoodWeb from the dataset. It fails if the dataset is malformed,
// most notably when an edge names an organism that is absent from every tier.
func New(ds Dataset) (*FoodWeb, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset %q: %w", ds.Name, err)
	}

	w := &FoodWeb{
		dataset: ds.Clone(),
		graph:   graph.NewDigraph(),
		tiers:   make(map[string]Tier),
	}

	for _, t := range Tiers() {
		for _, name := range ds.Tier(t) {
			w.graph.AddNode(name)
			w.tiers[name] = t
		}
	}

	for _, e := range ds.Edges {
		if err := w.graph.AddEdge(e.Prey, e.Predator); err != nil {
			return nil, fmt.Errorf("adding edge %s: %w", e, err)
		}
	}

	return w, nil
}

// MustNew is like New but panics on a malformed dataset. It is meant for
// literal datasets such as Default.
func MustNew(ds Dataset) *FoodWeb {
	w, err := New(ds)
	if err != nil {
		panic(err)
	}
	return w
}

// Name returns the dataset name.
func (w *FoodWeb) Name() string {
	return w.dataset.Name
}

// Dataset returns a copy of the dataset the web was built from.
func (w *FoodWeb) Dataset() Dataset {
	return w.dataset.Clone()
}

// NodeCount returns the number of organisms.
func (w *FoodWeb) NodeCount() int {
	return w.graph.NodeCount()
}

// EdgeCount returns the number of predation edges.
func (w *FoodWeb) EdgeCount() int {
	return w.graph.EdgeCount()
}

// Density returns the directed graph density, in [0, 1].
func (w *FoodWeb) Density() float64 {
	return w.graph.Density()
}

// IsStronglyConnected reports whether every organism can reach every other one
// along predation edges. Real food webs almost never are; it is a diagnostic.
func (w *FoodWeb) IsStronglyConnected() bool {
	return w.graph.IsStronglyConnected()
}

// IsWeaklyConnected reports whether the web is connected ignoring edge direction.
func (w *FoodWeb) IsWeaklyConnected() bool {
	return w.graph.IsWeaklyConnected()
}

// TierOf returns the tier of the named organism.
func (w *FoodWeb) TierOf(name string) (Tier, error) {
	t, ok := w.tiers[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// OutDegree returns the number of predators feeding on the organism.
func (w *FoodWeb) OutDegree(name string) (int, error) {
	d, err := w.graph.OutDegree(name)
	return d, w.lookupErr(name, err)
}

// InDegree returns the number of organisms the named organism feeds on.
func (w *FoodWeb) InDegree(name string) (int, error) {
	d, err := w.graph.InDegree(name)
	return d, w.lookupErr(name, err)
}

// Predators returns the organisms that feed on the named organism.
func (w *FoodWeb) Predators(name string) ([]string, error) {
	p, err := w.graph.Successors(name)
	return p, w.lookupErr(name, err)
}

// Prey returns the organisms the named organism feeds on.
func (w *FoodWeb) Prey(name string) ([]string, error) {
	p, err := w.graph.Predecessors(name)
	return p, w.lookupErr(name, err)
}

// TopPredators returns the organisms nothing feeds on (out-degree 0), in
// organism order.
func (w *FoodWeb) TopPredators() []string {
	return w.graph.Sinks()
}

// BaseOrganisms returns the organisms that feed on nothing in the web
// (in-degree 0), in organism order.
func (w *FoodWeb) BaseOrganisms() []string {
	return w.graph.Sources()
}

// Organisms returns every organism with its tier, producers first.
func (w *FoodWeb) Organisms() []Organism {
	names := w.graph.Nodes()
	result := make([]Organism, len(names))
	for i, name := range names {
		result[i] = Organism{Name: name, Tier: w.tiers[name]}
	}
	return result
}

// Members returns the organisms of a tier in dataset order.
func (w *FoodWeb) Members(t Tier) []string {
	return cloneStrings(w.dataset.Tier(t))
}

// Edges returns every predation edge in dataset order.
func (w *FoodWeb) Edges() []PredationEdge {
	edges := w.graph.Edges()
	result := make([]PredationEdge, len(edges))
	for i, e := range edges {
		result[i] = PredationEdge{Prey: e.From, Predator: e.To}
	}
	return result
}

func (w *FoodWeb) lookupErr(name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, graph.ErrNodeNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return err
}
