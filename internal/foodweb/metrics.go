package foodweb

// TierMembers lists the organisms of one tier.
type TierMembers struct {
	Tier      Tier     `json:"tier" yaml:"tier"`
	Organisms []string `json:"organisms" yaml:"organisms"`
}

// Metrics is a summary of the structural properties of a FoodWeb.
type Metrics struct {
	Nodes             int           `json:"nodes" yaml:"nodes"`
	Edges             int           `json:"edges" yaml:"edges"`
	Density           float64       `json:"density" yaml:"density"`
	StronglyConnected bool          `json:"strongly_connected" yaml:"strongly_connected"`
	WeaklyConnected   bool          `json:"weakly_connected" yaml:"weakly_connected"`
	Tiers             []TierMembers `json:"tiers" yaml:"tiers"`
	TopPredators      []string      `json:"top_predators" yaml:"top_predators"`
	BaseOrganisms     []string      `json:"base_organisms" yaml:"base_organisms"`
}

// Metrics computes the summary of the web.
func (w *FoodWeb) Metrics() Metrics {
	m := Metrics{
		Nodes:             w.NodeCount(),
		Edges:             w.EdgeCount(),
		Density:           w.Density(),
		StronglyConnected: w.IsStronglyConnected(),
		WeaklyConnected:   w.IsWeaklyConnected(),
		TopPredators:      w.TopPredators(),
		BaseOrganisms:     w.BaseOrganisms(),
	}
	for _, t := range Tiers() {
		m.Tiers = append(m.Tiers, TierMembers{Tier: t, Organisms: w.Members(t)})
	}
	return m
}
