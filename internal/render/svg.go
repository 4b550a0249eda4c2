// Package render draws a laid-out food web as an SVG image.
//
// Organisms are coloured by tier, predation edges are drawn as curved arrows
// from prey to predator, and the figure carries tier labels, a metrics box, a
// title and a legend.
package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/Benny93/foodweb-go/internal/foodweb"
	"github.com/Benny93/foodweb-go/internal/layout"
)

// TierColors maps each tier to its node fill colour.
var TierColors = map[foodweb.Tier]string{
	foodweb.Producer:          "#90EE90",
	foodweb.PrimaryConsumer:   "#FFB6C1",
	foodweb.SecondaryConsumer: "#87CEEB",
	foodweb.TertiaryConsumer:  "#FFA07A",
}

const (
	edgeColor  = "#404040"
	arrowID    = "arrow"
	defaultRad = 0.2
)

// Options controls the figure geometry.
type Options struct {
	// Width and Height are the canvas size in pixels.
	Width  int
	Height int

	// NodeRadius is the radius of an organism circle in pixels.
	NodeRadius int

	// Curvature is the arc bend of edges, relative to their length.
	Curvature float64

	// Title is drawn at the top of the figure.
	Title string
}

// DefaultOptions returns a 1400x1000 canvas with the standard title.
func DefaultOptions() Options {
	return Options{
		Width:      1400,
		Height:     1000,
		NodeRadius: 30,
		Curvature:  defaultRad,
		Title:      "Directed Ecosystem Food Web (Trophic Levels)",
	}
}

// viewport maps layout coordinates onto the canvas. The layout x range is
// [-1, 1]; tier labels sit at x=1.2 and the metrics box at (-1.5, -1.5), so
// the viewport is widened to keep both on the canvas.
type viewport struct {
	minX, maxX float64
	minY, maxY float64
	width      float64
	height     float64
	top        float64
}

func newViewport(pos map[string]layout.Position, opts Options) viewport {
	v := viewport{
		minX: -1.6, maxX: 2.0,
		minY: -1.8, maxY: 2.3,
		width:  float64(opts.Width),
		height: float64(opts.Height),
		top:    80,
	}
	for _, p := range pos {
		v.minX = math.Min(v.minX, p.X-0.2)
		v.maxX = math.Max(v.maxX, p.X+0.2)
		v.minY = math.Min(v.minY, p.Y-0.3)
		v.maxY = math.Max(v.maxY, p.Y+0.3)
	}
	return v
}

func (v viewport) point(x, y float64) (float64, float64) {
	px := (x - v.minX) / (v.maxX - v.minX) * v.width
	py := v.top + (v.maxY-y)/(v.maxY-v.minY)*(v.height-v.top)
	return px, py
}

// SVG writes the food web as an SVG document. Organisms without a position are
// skipped.
func SVG(w io.Writer, web *foodweb.FoodWeb, pos map[string]layout.Position, opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}

	vp := newViewport(pos, opts)
	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	canvas.Title(opts.Title)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:white")

	canvas.Def()
	canvas.Marker(arrowID, 10, 5, 10, 10, `orient="auto"`, `markerUnits="userSpaceOnUse"`, `viewBox="0 0 10 10"`)
	canvas.Path("M 0 0 L 10 5 L 0 10 z", "fill:"+edgeColor)
	canvas.MarkerEnd()
	canvas.DefEnd()

	drawTitle(canvas, opts)
	drawTierLabels(canvas, vp, web)
	drawEdges(canvas, vp, web, pos, opts)
	drawNodes(canvas, vp, web, pos, opts)
	drawMetrics(canvas, vp, web)
	drawLegend(canvas)

	canvas.End()
	return nil
}

func drawTitle(canvas *svg.SVG, opts Options) {
	canvas.Text(opts.Width/2, 45, opts.Title,
		"text-anchor:middle;font-family:sans-serif;font-size:28px;font-weight:bold")
}

func drawTierLabels(canvas *svg.SVG, vp viewport, web *foodweb.FoodWeb) {
	for _, t := range foodweb.Tiers() {
		if len(web.Members(t)) == 0 {
			continue
		}
		x, y := vp.point(1.2, t.Level())
		label := t.String()
		boxW := 11*len(label) + 20
		canvas.Roundrect(int(x)-6, int(y)-16, boxW, 30, 6, 6, "fill:lightgray;fill-opacity:0.7")
		canvas.Text(int(x)+4, int(y)+5, label,
			"font-family:sans-serif;font-size:16px;font-weight:bold")
	}
}

func drawEdges(canvas *svg.SVG, vp viewport, web *foodweb.FoodWeb, pos map[string]layout.Position, opts Options) {
	canvas.Gid("edges")
	for _, e := range web.Edges() {
		from, okFrom := pos[e.Prey]
		to, okTo := pos[e.Predator]
		if !okFrom || !okTo {
			continue
		}
		x1, y1 := vp.point(from.X, from.Y)
		x2, y2 := vp.point(to.X, to.Y)
		canvas.Path(arcPath(x1, y1, x2, y2, opts.Curvature, float64(opts.NodeRadius)),
			fmt.Sprintf(`marker-end="url(#%s)"`, arrowID),
			fmt.Sprintf("fill:none;stroke:%s;stroke-width:2;stroke-opacity:0.7", edgeColor))
	}
	canvas.Gend()
}

// arcPath returns a quadratic Bézier path from (x1,y1) to (x2,y2) bent by rad
// times the chord length, trimmed by margin at both ends so arrows stop at the
// node boundary.
func arcPath(x1, y1, x2, y2, rad, margin float64) string {
	dx, dy := x2-x1, y2-y1
	cx := (x1+x2)/2 + rad*dy
	cy := (y1+y2)/2 - rad*dx

	sx, sy := towards(x1, y1, cx, cy, margin)
	ex, ey := towards(x2, y2, cx, cy, margin)
	return fmt.Sprintf("M %.1f %.1f Q %.1f %.1f %.1f %.1f", sx, sy, cx, cy, ex, ey)
}

// towards moves (x,y) by dist in the direction of (tx,ty).
func towards(x, y, tx, ty, dist float64) (float64, float64) {
	dx, dy := tx-x, ty-y
	length := math.Hypot(dx, dy)
	if length == 0 || dist >= length {
		return x, y
	}
	return x + dx/length*dist, y + dy/length*dist
}

func drawNodes(canvas *svg.SVG, vp viewport, web *foodweb.FoodWeb, pos map[string]layout.Position, opts Options) {
	canvas.Gid("organisms")
	for _, o := range web.Organisms() {
		p, ok := pos[o.Name]
		if !ok {
			continue
		}
		x, y := vp.point(p.X, p.Y)
		canvas.Circle(int(x), int(y), opts.NodeRadius,
			fmt.Sprintf("fill:%s;fill-opacity:0.9;stroke:black;stroke-width:2", TierColors[o.Tier]))
		canvas.Text(int(x), int(y)+4, o.Name,
			"text-anchor:middle;font-family:sans-serif;font-size:13px;font-weight:bold")
	}
	canvas.Gend()
}

func drawMetrics(canvas *svg.SVG, vp viewport, web *foodweb.FoodWeb) {
	x, y := vp.point(-1.5, -1.5)
	lines := []string{
		"Graph Metrics:",
		fmt.Sprintf("Nodes: %d", web.NodeCount()),
		fmt.Sprintf("Edges: %d", web.EdgeCount()),
		fmt.Sprintf("Density: %.3f", web.Density()),
	}
	canvas.Roundrect(int(x)-10, int(y)-22, 170, 22*len(lines)+14, 8, 8,
		"fill:lightyellow;fill-opacity:0.8;stroke:gray")
	canvas.Textlines(int(x), int(y), lines, 15, 22, "black", "start")
}

func drawLegend(canvas *svg.SVG) {
	canvas.Gid("legend")
	canvas.Roundrect(10, 70, 230, 4*26+16, 6, 6, "fill:white;stroke:lightgray")
	for i, t := range foodweb.Tiers() {
		y := 92 + i*26
		canvas.Circle(30, y, 8, "fill:"+TierColors[t])
		canvas.Text(46, y+5, t.String(), "font-family:sans-serif;font-size:14px")
	}
	canvas.Gend()
}
