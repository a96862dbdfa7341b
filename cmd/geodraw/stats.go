package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Show area, vertex count and perimeter of each feature",
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	features, err := readFeatures(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
		os.Exit(1)
	}

	fmt.Printf("%-20s %-8s %-16s %-10s %-12s\n", "Feature", "Type", "Area", "Vertices", "Perimeter")
	for i, f := range features {
		s := geospatial.Stats(f.Geometry)
		fmt.Printf("%-20s %-8s %-16s %-10d %.1f m\n",
			featureLabel(i, f), f.Geometry.Type, s.FormattedArea, s.VertexCount, s.Perimeter)
	}
}
