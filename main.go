// Foodweb - trophic food web analysis and rendering.
//
// Foodweb builds a directed predation graph from a tiered organism dataset,
// reports its structural metrics and draws it as an SVG.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/foodweb-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
