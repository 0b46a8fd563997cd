// Package output renders the command-line summary of a loaded atlas.
package output

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fatih/color"
	"github.com/ritzau/lumen-atlas/pkg/analysis"
	"github.com/ritzau/lumen-atlas/pkg/atlas"
)

// EdgeSetSummary describes one edge set.
type EdgeSetSummary struct {
	Name    string
	Edges   int // directed adjacency entries
	Islands int
}

// Summary is what PrintSummary reports about an atlas.
type Summary struct {
	Path     string
	Nodes    int
	Regions  map[string]int // node count per region, "" for none
	EdgeSets []EdgeSetSummary
	Drift    []analysis.Edge
}

// Summarize collects a Summary from v.
func Summarize(path string, v atlas.View) Summary {
	s := Summary{
		Path:    path,
		Nodes:   v.Len(),
		Regions: make(map[string]int),
		Drift:   analysis.Drift(v),
	}
	for _, n := range v.Nodes() {
		s.Regions[n.Region]++
	}
	for _, name := range v.EdgeSetNames() {
		s.EdgeSets = append(s.EdgeSets, EdgeSetSummary{
			Name:    name,
			Edges:   len(v.Edges(name)),
			Islands: len(analysis.Islands(v, name)),
		})
	}
	return s
}

// PrintSummary prints a formatted atlas summary with colors
func PrintSummary(w io.Writer, s Summary) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Lumen Atlas - Summary")
	bold.Fprintln(w, "=====================")
	fmt.Fprintf(w, "Snapshot: %s\n", s.Path)
	fmt.Fprintf(w, "Nodes: %d\n", s.Nodes)
	fmt.Fprintln(w)

	if len(s.Regions) > 0 {
		bold.Fprintln(w, "REGIONS:")
		for _, region := range slices.Sorted(maps.Keys(s.Regions)) {
			label := region
			if label == "" {
				label = "(none)"
			}
			cyan.Fprintf(w, "  %-16s", label)
			fmt.Fprintf(w, " %d node(s)\n", s.Regions[region])
		}
		fmt.Fprintln(w)
	}

	if len(s.EdgeSets) == 0 {
		yellow.Fprintln(w, "No edge sets")
	} else {
		bold.Fprintln(w, "EDGE SETS:")
		for _, es := range s.EdgeSets {
			cyan.Fprintf(w, "  %-16s", es.Name)
			fmt.Fprintf(w, " %d edge(s), ", es.Edges)
			islandColor := green
			if es.Islands > 1 {
				islandColor = yellow
			}
			islandColor.Fprintf(w, "%d island(s)\n", es.Islands)
		}
	}
	fmt.Fprintln(w)

	if len(s.Drift) == 0 {
		green.Fprintln(w, "✓ Adjacency matches authored neighbors")
		return
	}

	red.Fprintf(w, "DRIFT: %d edge(s) not in authored neighbors\n", len(s.Drift))
	for _, d := range s.Drift {
		yellow.Fprintf(w, "  %s: %d -> %d\n", d.EdgeSet, d.From, d.To)
	}
	fmt.Fprintln(w, "  Export with source=adjacency to keep them")
}
