package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/geodraw/internal/pkg/logging"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "geodraw",
	Short: "Validate, measure and replay edits of map geometries",
	Long: `geodraw works on GeoJSON points and polygons offline. It runs the same
validation and draw session logic as the GeoDraw API: coordinate bounds,
ring closure, vertex count, self-intersections and area limits.`,
	Version: "1.0.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logging.New(os.Stderr, logLevel, "text"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
