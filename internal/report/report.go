// Package report prints the food web analysis to the console.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/Benny93/foodweb-go/internal/foodweb"
)

const ruleWidth = 50

// Options controls report output.
type Options struct {
	// NoColor disables ANSI colouring of the banner.
	NoColor bool
}

// Write prints the analysis of web to w.
func Write(w io.Writer, web *foodweb.FoodWeb, opts Options) error {
	return WriteMetrics(w, web.Metrics(), opts)
}

// WriteMetrics prints a previously computed analysis to w.
func WriteMetrics(w io.Writer, m foodweb.Metrics, opts Options) error {
	banner := color.New(color.FgCyan, color.Bold)
	heading := color.New(color.Bold)
	if opts.NoColor {
		banner.DisableColor()
		heading.DisableColor()
	}

	rule := strings.Repeat("=", ruleWidth)
	p := &printer{w: w}

	p.println()
	p.println(rule)
	p.colored(banner, "FOOD WEB ANALYSIS")
	p.println(rule)
	p.printf("Number of nodes: %d\n", m.Nodes)
	p.printf("Number of edges: %d\n", m.Edges)
	p.printf("Graph density: %.3f\n", m.Density)
	p.printf("Is strongly connected: %t\n", m.StronglyConnected)
	p.printf("Is weakly connected: %t\n", m.WeaklyConnected)

	p.println()
	p.colored(heading, "Trophic levels:")
	for level, tm := range m.Tiers {
		p.printf("Level %d: %s\n", level, strings.Join(tm.Organisms, ", "))
	}

	p.println()
	p.colored(heading, "Top predators (no outgoing edges):")
	p.println(strings.Join(m.TopPredators, ", "))

	p.println()
	p.colored(heading, "Base organisms (no incoming edges):")
	p.println(strings.Join(m.BaseOrganisms, ", "))

	return p.err
}

// WriteChains prints a numbered list of food chains to w.
func WriteChains(w io.Writer, chains []foodweb.Chain, opts Options) error {
	heading := color.New(color.Bold)
	if opts.NoColor {
		heading.DisableColor()
	}

	p := &printer{w: w}
	p.println()
	p.colored(heading, fmt.Sprintf("Food chains (%d):", len(chains)))
	for i, c := range chains {
		p.printf("%d. %s\n", i+1, c)
	}
	return p.err
}

// printer remembers the first write error so the report body stays linear.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) println(args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, args...)
}

func (p *printer) colored(c *color.Color, s string) {
	if p.err != nil {
		return
	}
	_, p.err = c.Fprintln(p.w, s)
}
