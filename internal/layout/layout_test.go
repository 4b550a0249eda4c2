package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/foodweb-go/internal/foodweb"
)

func TestSpring(t *testing.T) {
	t.Parallel()

	web := foodweb.MustNew(foodweb.Default())

	t.Run("PositionsEveryOrganism", func(t *testing.T) {
		t.Parallel()
		pos := Spring(web, DefaultOptions())

		require.Len(t, pos, web.NodeCount())
		for _, o := range web.Organisms() {
			_, ok := pos[o.Name]
			assert.True(t, ok, "missing position for %s", o.Name)
		}
	})

	t.Run("WithinUnitSquare", func(t *testing.T) {
		t.Parallel()
		pos := Spring(web, DefaultOptions())

		var maxAbs float64
		for _, p := range pos {
			assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
			assert.LessOrEqual(t, math.Abs(p.X), 1+1e-9)
			assert.LessOrEqual(t, math.Abs(p.Y), 1+1e-9)
			maxAbs = math.Max(maxAbs, math.Max(math.Abs(p.X), math.Abs(p.Y)))
		}
		assert.InDelta(t, 1.0, maxAbs, 1e-9)
	})

	t.Run("DeterministicForSeed", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, Spring(web, DefaultOptions()), Spring(web, DefaultOptions()))
	})

	t.Run("SeedChangesLayout", func(t *testing.T) {
		t.Parallel()
		other := DefaultOptions()
		other.Seed = 7
		assert.NotEqual(t, Spring(web, DefaultOptions()), Spring(web, other))
	})

	t.Run("NoOverlap", func(t *testing.T) {
		t.Parallel()
		pos := Spring(web, DefaultOptions())
		names := make([]string, 0, len(pos))
		for name := range pos {
			names = append(names, name)
		}
		for i := range names {
			for j := i + 1; j < len(names); j++ {
				a, b := pos[names[i]], pos[names[j]]
				assert.Greater(t, math.Hypot(a.X-b.X, a.Y-b.Y), 1e-6, "%s and %s overlap", names[i], names[j])
			}
		}
	})
}

func TestSpring_SmallWebs(t *testing.T) {
	t.Parallel()

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		web := foodweb.MustNew(foodweb.Dataset{})
		assert.Empty(t, Spring(web, DefaultOptions()))
	})

	t.Run("Single", func(t *testing.T) {
		t.Parallel()
		web := foodweb.MustNew(foodweb.Dataset{Producers: []string{"Algae"}})
		assert.Equal(t, map[string]Position{"Algae": {}}, Spring(web, DefaultOptions()))
	})

	t.Run("ZeroIterations", func(t *testing.T) {
		t.Parallel()
		web := foodweb.MustNew(foodweb.Default())
		pos := Spring(web, Options{K: 3, Iterations: 0, Seed: 1})
		assert.Len(t, pos, 8)
	})
}

func TestTrophic(t *testing.T) {
	t.Parallel()

	web := foodweb.MustNew(foodweb.Default())

	t.Run("DefaultLevels", func(t *testing.T) {
		t.Parallel()
		spring := Spring(web, DefaultOptions())
		pos := Trophic(web, DefaultOptions(), DefaultLevels())

		expected := map[string]float64{
			"Grass": 2,
			"Rabbit": 1, "Deer": 1, "Frog": 1,
			"Snake": 0, "Eagle": 0,
			"Tiger": -1, "Lion": -1,
		}
		for name, y := range expected {
			assert.Equal(t, y, pos[name].Y, name)
			assert.Equal(t, spring[name].X, pos[name].X, name)
		}
	})

	t.Run("CallerLevels", func(t *testing.T) {
		t.Parallel()
		levels := map[foodweb.Tier]float64{
			foodweb.Producer:        0,
			foodweb.PrimaryConsumer: 10,
		}
		pos := Trophic(web, DefaultOptions(), levels)

		assert.Equal(t, 0.0, pos["Grass"].Y)
		assert.Equal(t, 10.0, pos["Deer"].Y)
		// Missing tiers fall back to the default level.
		assert.Equal(t, -1.0, pos["Lion"].Y)
	})
}

func TestDefaultLevels(t *testing.T) {
	t.Parallel()

	levels := DefaultLevels()

	assert.Equal(t, map[foodweb.Tier]float64{
		foodweb.Producer:          2,
		foodweb.PrimaryConsumer:   1,
		foodweb.SecondaryConsumer: 0,
		foodweb.TertiaryConsumer:  -1,
	}, levels)
}
