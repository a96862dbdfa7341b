package http

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geodraw/internal/core/domain"
	"github.com/samirrijal/geodraw/internal/core/validation"
	"github.com/samirrijal/geodraw/internal/pkg/geospatial"
)

// geometryArg decodes a GeoJSON geometry passed as a string argument.
func geometryArg(p graphql.ResolveParams) (domain.Geometry, error) {
	raw, _ := p.Args["geometry"].(string)
	var g domain.Geometry
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return g, fmt.Errorf("geometry must be a GeoJSON geometry object: %w", err)
	}
	return g, nil
}

func geometryString(g domain.Geometry) (string, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies, v *validation.Validator) (graphql.Schema, error) {
	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeometryStats",
		Fields: graphql.Fields{
			"area":           &graphql.Field{Type: graphql.Float},
			"formatted_area": &graphql.Field{Type: graphql.String},
			"vertex_count":   &graphql.Field{Type: graphql.Int},
			"perimeter":      &graphql.Field{Type: graphql.Float},
		},
	})

	validationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ValidationResult",
		Fields: graphql.Fields{
			"is_valid": &graphql.Field{Type: graphql.Boolean},
			"errors":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"type":       &graphql.Field{Type: graphql.String},
			"version":    &graphql.Field{Type: graphql.Int},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
			"geometry": &graphql.Field{
				Type:        graphql.String,
				Description: "GeoJSON geometry",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc, ok := p.Source.(*domain.Location)
					if !ok {
						return nil, nil
					}
					return geometryString(loc.Geometry)
				},
			},
			"stats": &graphql.Field{
				Type: statsType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					loc, ok := p.Source.(*domain.Location)
					if !ok {
						return nil, nil
					}
					return geospatial.Stats(loc.Geometry), nil
				},
			},
		},
	})

	geometryArgs := graphql.FieldConfigArgument{
		"geometry": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"location": &graphql.Field{
				Type:        locationType,
				Description: "Get a persisted location by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Locations == nil {
						return nil, fmt.Errorf("locations not available")
					}
					id, _ := p.Args["id"].(string)
					return deps.Locations.GetByID(p.Context, id)
				},
			},
			"validateGeometry": &graphql.Field{
				Type:        validationType,
				Description: "Validate a GeoJSON geometry",
				Args:        geometryArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					g, err := geometryArg(p)
					if err != nil {
						return nil, err
					}
					return v.Validate(domain.DrawFeature{Geometry: g}), nil
				},
			},
			"geometryStats": &graphql.Field{
				Type:        statsType,
				Description: "Area, vertex count and perimeter of a GeoJSON geometry",
				Args:        geometryArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					g, err := geometryArg(p)
					if err != nil {
						return nil, err
					}
					return geospatial.Stats(g), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps, deps.validator())
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
