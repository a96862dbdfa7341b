package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/validation"
)

var (
	validateMinArea float64
	validateMaxArea float64
	validateJSON    bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate the points and polygons of a GeoJSON file",
	Long:  "Check every feature against the draw rules. Exits with status 2 when any feature is invalid.",
	Args:  cobra.ExactArgs(1),
	Run:   runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Float64Var(&validateMinArea, "min-area", validation.DefaultMinArea, "Minimum polygon area in m²")
	validateCmd.Flags().Float64Var(&validateMaxArea, "max-area", validation.DefaultMaxArea, "Maximum polygon area in m²")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print results as JSON")
}

type validateResult struct {
	Feature string `json:"feature"`
	domain.ValidationResult
}

func runValidate(cmd *cobra.Command, args []string) {
	features, err := readFeatures(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
		os.Exit(1)
	}

	v := validation.New(validation.Limits{MinArea: validateMinArea, MaxArea: validateMaxArea})
	results := make([]validateResult, len(features))
	invalid := 0
	for i, f := range features {
		results[i] = validateResult{Feature: featureLabel(i, f), ValidationResult: v.Validate(f)}
		if !results[i].IsValid {
			invalid++
		}
	}

	if validateJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(results)
	} else {
		for _, r := range results {
			if r.IsValid {
				fmt.Printf("%-20s valid\n", r.Feature)
				continue
			}
			fmt.Printf("%-20s invalid\n", r.Feature)
			for _, e := range r.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
		fmt.Printf("\n%d feature(s), %d invalid\n", len(results), invalid)
	}

	if invalid > 0 {
		os.Exit(2)
	}
}
