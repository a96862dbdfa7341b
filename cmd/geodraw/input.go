package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

// readFeatures loads a GeoJSON geometry, Feature or FeatureCollection.
// Coordinates are decoded as-is so malformed input reaches validation.
func readFeatures(path string) ([]domain.DrawFeature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseFeatures(data)
}

func parseFeatures(data []byte) ([]domain.DrawFeature, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	switch head.Type {
	case "FeatureCollection":
		var fc struct {
			Features []domain.DrawFeature `json:"features"`
		}
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse feature collection: %w", err)
		}
		return fc.Features, nil
	case "Feature":
		var f domain.DrawFeature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse feature: %w", err)
		}
		return []domain.DrawFeature{f}, nil
	case "":
		return nil, fmt.Errorf("parse geojson: missing type")
	default:
		var g domain.Geometry
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("parse geometry: %w", err)
		}
		return []domain.DrawFeature{{Geometry: g}}, nil
	}
}

func featureLabel(i int, f domain.DrawFeature) string {
	if f.ID != "" {
		return fmt.Sprintf("#%d (%s)", i+1, f.ID)
	}
	if name, ok := f.Properties["name"].(string); ok && name != "" {
		return fmt.Sprintf("#%d %q", i+1, name)
	}
	return fmt.Sprintf("#%d", i+1)
}
