// Package layout assigns 2D positions to the organisms of a food web.
//
// Spring runs a seeded Fruchterman-Reingold force simulation and rescales the
// result into [-1, 1]. Trophic keeps the horizontal spread of the spring layout
// but pins every organism to the vertical level of its tier.
package layout

import (
	"math"
	"math/rand"

	"github.com/Benny93/foodweb-go/internal/foodweb"
)

// Position is a point in layout coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Options configures the spring simulation.
type Options struct {
	// K is the optimal distance between nodes.
	K float64

	// Iterations is the number of simulation steps.
	Iterations int

	// Seed makes the initial positions reproducible.
	Seed int64
}

// DefaultOptions returns K=3, 50 iterations and seed 42.
func DefaultOptions() Options {
	return Options{K: 3, Iterations: 50, Seed: 42}
}

const (
	minDistance     = 0.01
	minDisplacement = 0.01
)

// Spring computes a force-directed layout of the web. Edges attract their
// endpoints regardless of direction; every pair of organisms repels. The result
// is centred on the origin and scaled so the largest coordinate is 1.
func Spring(web *foodweb.FoodWeb, opts Options) map[string]Position {
	organisms := web.Organisms()
	n := len(organisms)
	result := make(map[string]Position, n)
	if n == 0 {
		return result
	}
	if n == 1 {
		result[organisms[0].Name] = Position{}
		return result
	}

	index := make(map[string]int, n)
	for i, o := range organisms {
		index[o.Name] = i
	}

	adjacent := make([][]bool, n)
	for i := range adjacent {
		adjacent[i] = make([]bool, n)
	}
	for _, e := range web.Edges() {
		a, b := index[e.Prey], index[e.Predator]
		adjacent[a][b] = true
		adjacent[b][a] = true
	}

	k := opts.K
	if k <= 0 {
		k = 1 / math.Sqrt(float64(n))
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	pos := make([]Position, n)
	for i := range pos {
		pos[i] = Position{X: rng.Float64(), Y: rng.Float64()}
	}

	minX, maxX, minY, maxY := bounds(pos)
	temperature := 0.1 * math.Max(maxX-minX, maxY-minY)
	cooling := temperature / float64(opts.Iterations+1)

	disp := make([]Position, n)
	for iter := 0; iter < opts.Iterations; iter++ {
		for i := range pos {
			var dx, dy float64
			for j := range pos {
				if i == j {
					continue
				}
				ddx := pos[i].X - pos[j].X
				ddy := pos[i].Y - pos[j].Y
				dist := math.Max(math.Hypot(ddx, ddy), minDistance)

				force := k * k / (dist * dist)
				if adjacent[i][j] {
					force -= dist / k
				}
				dx += ddx * force
				dy += ddy * force
			}
			disp[i] = Position{X: dx, Y: dy}
		}

		for i := range pos {
			length := math.Hypot(disp[i].X, disp[i].Y)
			if length < minDisplacement {
				length = 0.1
			}
			pos[i].X += disp[i].X * temperature / length
			pos[i].Y += disp[i].Y * temperature / length
		}
		temperature -= cooling
	}

	rescale(pos)

	for i, o := range organisms {
		result[o.Name] = pos[i]
	}
	return result
}

// DefaultLevels returns the vertical level of each tier: producers at 2 down to
// tertiary consumers at -1.
func DefaultLevels() map[foodweb.Tier]float64 {
	levels := make(map[foodweb.Tier]float64)
	for _, t := range foodweb.Tiers() {
		levels[t] = t.Level()
	}
	return levels
}

// Trophic computes a spring layout and then replaces each organism's Y with
// the level of its tier. Tiers missing from levels fall back to Tier.Level.
func Trophic(web *foodweb.FoodWeb, opts Options, levels map[foodweb.Tier]float64) map[string]Position {
	pos := Spring(web, opts)
	for _, o := range web.Organisms() {
		y, ok := levels[o.Tier]
		if !ok {
			y = o.Tier.Level()
		}
		p := pos[o.Name]
		p.Y = y
		pos[o.Name] = p
	}
	return pos
}

func bounds(pos []Position) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, p := range pos {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, maxX, minY, maxY
}

// rescale centres the positions on the origin and scales them into [-1, 1].
func rescale(pos []Position) {
	var meanX, meanY float64
	for _, p := range pos {
		meanX += p.X
		meanY += p.Y
	}
	meanX /= float64(len(pos))
	meanY /= float64(len(pos))

	var lim float64
	for i := range pos {
		pos[i].X -= meanX
		pos[i].Y -= meanY
		lim = math.Max(lim, math.Max(math.Abs(pos[i].X), math.Abs(pos[i].Y)))
	}
	if lim == 0 {
		return
	}
	for i := range pos {
		pos[i].X /= lim
		pos[i].Y /= lim
	}
}
