package foodweb

import "strings"

// Chain is a food chain: a sequence of organisms in which each one is eaten by
// the next.
type Chain []string

// String joins the chain with arrows, prey first.
func (c Chain) String() string {
	return strings.Join(c, " -> ")
}

// Links returns the number of predation edges in the chain.
func (c Chain) Links() int {
	if len(c) == 0 {
		return 0
	}
	return len(c) - 1
}

// ChainQuery selects food chains.
type ChainQuery struct {
	// From is the organism the chains start at. Empty means every base organism.
	From string

	// MaxLinks cuts chains after this many edges. Zero or negative means no limit.
	MaxLinks int

	// Limit stops the search after this many chains. Zero or negative means no limit.
	Limit int
}

// FindChains returns the chains selected by q, and whether the search stopped
// at q.Limit with more chains left. It fails with ErrNotFound when q.From names
// an unknown organism.
func (w *FoodWeb) FindChains(q ChainQuery) ([]Chain, bool, error) {
	starts := w.BaseOrganisms()
	if q.From != "" {
		starts = []string{q.From}
	}

	var result []Chain
	truncated := false
	for _, start := range starts {
		err := w.graph.WalkPaths(start, q.MaxLinks, func(p []string) bool {
			if len(p) < 2 {
				return true
			}
			if q.Limit > 0 && len(result) == q.Limit {
				truncated = true
				return false
			}
			result = append(result, Chain(p))
			return true
		})
		if err != nil {
			return nil, false, w.lookupErr(start, err)
		}
		if truncated {
			break
		}
	}
	return result, truncated, nil
}

// Chains returns the food chains that start at a base organism. Each chain is
// followed until it reaches an organism with no further predators, or until it
// holds maxLinks edges when maxLinks is positive. Organisms with no edges at all
// form no chain.
//
// Chains are ordered by base organism and then depth-first in edge order.
func (w *FoodWeb) Chains(maxLinks int) []Chain {
	// Base organisms always exist, so the lookup cannot fail.
	chains, _, _ := w.FindChains(ChainQuery{MaxLinks: maxLinks})
	return chains
}

// ChainsFrom returns the food chains that start at the named organism.
func (w *FoodWeb) ChainsFrom(name string, maxLinks int) ([]Chain, error) {
	chains, _, err := w.FindChains(ChainQuery{From: name, MaxLinks: maxLinks})
	return chains, err
}
