package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"github.com/samirrijal/geodraw/internal/adapters/surface"
	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/history"
	"github.com/samirrijal/geodraw/internal/core/usecases"
	"github.com/samirrijal/geodraw/internal/core/validation"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

var (
	editSurface     string
	editOut         string
	editHistorySize int
)

var editCmd = &cobra.Command{
	Use:   "edit [script]",
	Short: "Replay an edit script through a draw session",
	Long: `Replay a JSON array of steps through a draw session on an in-memory surface
and print the session state after each step. Steps:

  {"op":"draw_point"} {"op":"draw_polygon"}
  {"op":"edit","feature_id":"...","location_id":"...","version":1,"type":"region"}
  {"op":"create","geometry":{...}} {"op":"update","geometry":{...}}
  {"op":"undo"} {"op":"redo"} {"op":"cancel"} {"op":"clear"} {"op":"save"}`,
	Args: cobra.ExactArgs(1),
	Run:  runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVarP(&editSurface, "surface", "s", "", "GeoJSON FeatureCollection to preload onto the surface")
	editCmd.Flags().StringVarP(&editOut, "out", "o", "", "Write saved features to this GeoJSON file")
	editCmd.Flags().IntVar(&editHistorySize, "history", history.DefaultSize, "Undo history size")
}

type editStep struct {
	Op         string           `json:"op"`
	FeatureID  string           `json:"feature_id,omitempty"`
	LocationID string           `json:"location_id,omitempty"`
	Version    int              `json:"version,omitempty"`
	Type       string           `json:"type,omitempty"`
	Geometry   *domain.Geometry `json:"geometry,omitempty"`
	Properties map[string]any   `json:"properties,omitempty"`
}

func runEdit(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading script: %v\n", err)
		os.Exit(1)
	}
	var steps []editStep
	if err := json.Unmarshal(data, &steps); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing script: %v\n", err)
		os.Exit(1)
	}

	surf := surface.NewMemory()
	if editSurface != "" {
		raw, err := os.ReadFile(editSurface)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading surface: %v\n", err)
			os.Exit(1)
		}
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing surface: %v\n", err)
			os.Exit(1)
		}
		ids, err := surf.Load(fc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading surface: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded %d feature(s): %s\n\n", len(ids), strings.Join(ids, ", "))
	}

	saved, err := replay(cmd.Context(), surf, steps, os.Stdout,
		usecases.WithHistorySize(editHistorySize),
		usecases.WithValidator(validation.New(validation.DefaultLimits())),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d feature(s) saved, %d left on surface\n", len(saved), len(surf.All()))
	if editOut != "" {
		if err := writeFeatures(editOut, saved); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", editOut, err)
			os.Exit(1)
		}
	}
}

// replay runs steps against a fresh session on surf and returns the
// features handed to the save handler.
func replay(ctx context.Context, surf *surface.Memory, steps []editStep, w io.Writer, opts ...usecases.SessionOption) ([]domain.DrawFeature, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var saved []domain.DrawFeature
	opts = append(opts, usecases.WithSaveHandler(func(_ context.Context, f domain.DrawFeature) error {
		saved = append(saved, f)
		return nil
	}))
	session := usecases.NewDrawSession(surf, opts...)

	for i, st := range steps {
		note := ""
		switch st.Op {
		case "draw_point":
			session.StartDrawPoint()
		case "draw_polygon":
			session.StartDrawPolygon()
		case "edit":
			var meta *domain.EditTargetMetadata
			if st.LocationID != "" {
				meta = &domain.EditTargetMetadata{LocationID: st.LocationID, Version: st.Version, Type: st.Type}
			}
			session.StartEdit(st.FeatureID, meta)
		case "create":
			if st.Geometry == nil {
				return saved, fmt.Errorf("step %d: create needs a geometry", i+1)
			}
			f := domain.DrawFeature{ID: st.FeatureID, Geometry: *st.Geometry, Properties: st.Properties}
			f.ID = surf.Add(f)[0]
			session.HandleFeatureCreated(f)
		case "update":
			if st.Geometry == nil {
				return saved, fmt.Errorf("step %d: update needs a geometry", i+1)
			}
			id := st.FeatureID
			if id == "" {
				if cur := session.State().CurrentFeature; cur != nil {
					id = cur.ID
				}
			}
			f := domain.DrawFeature{ID: id, Geometry: *st.Geometry, Properties: st.Properties}
			if !surf.Put(f) {
				return saved, fmt.Errorf("step %d: feature %q is not on the surface", i+1, id)
			}
			session.HandleFeatureUpdated(f)
		case "undo":
			note = fmt.Sprintf("applied=%t", session.Undo())
		case "redo":
			note = fmt.Sprintf("applied=%t", session.Redo())
		case "cancel":
			session.CancelDraw()
		case "clear":
			session.ClearFeature()
		case "save":
			if err := session.SaveFeature(ctx); err != nil {
				return saved, fmt.Errorf("step %d: save: %w", i+1, err)
			}
		default:
			return saved, fmt.Errorf("step %d: unknown op %q", i+1, st.Op)
		}
		printStep(w, i+1, st.Op, session, note)
	}
	return saved, nil
}

func printStep(w io.Writer, n int, op string, s *usecases.DrawSession, note string) {
	st := s.State()
	valid := "-"
	if st.ValidationResult != nil {
		valid = fmt.Sprintf("%t", st.ValidationResult.IsValid)
	}
	fmt.Fprintf(w, "%3d %-13s mode=%-12s unsaved=%-5t valid=%-5s undo=%-5t redo=%-5t %s\n",
		n, op, st.Mode, st.HasUnsavedChanges, valid, st.CanUndo, st.CanRedo, note)

	if st.ValidationResult != nil {
		for _, e := range st.ValidationResult.Errors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
	if stats, ok := s.Stats(); ok && st.CurrentFeature.Geometry.Type == domain.GeometryPolygon {
		fmt.Fprintf(w, "    area %s, %d vertices, perimeter %.1f m\n", stats.FormattedArea, stats.VertexCount, stats.Perimeter)
	}
}

func writeFeatures(path string, features []domain.DrawFeature) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		g, err := geospatial.ToOrb(f.Geometry)
		if err != nil {
			return err
		}
		gf := geojson.NewFeature(g)
		gf.ID = f.ID
		for k, v := range f.Properties {
			gf.Properties[k] = v
		}
		fc.Append(gf)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
