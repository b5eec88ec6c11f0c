package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/vehicle-tracker/internal/core/domain"
	"github.com/samirrijal/vehicle-tracker/internal/core/playback"
)

// buildSchema creates the GraphQL schema wired to our services.
// Field names follow the JSON tags so the default resolver can read structs.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	recordType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LocationRecord",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
			"timestamp": &graphql.Field{Type: graphql.String},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DirectionalMarker",
		Fields: graphql.Fields{
			"position": &graphql.Field{Type: geoPointType},
			"bearing":  &graphql.Field{Type: graphql.Float},
			"segment":  &graphql.Field{Type: graphql.Int},
		},
	})

	frameType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Frame",
		Fields: graphql.Fields{
			"phase": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return string(p.Source.(domain.Frame).Phase), nil
				},
			},
			"cursor":              &graphql.Field{Type: graphql.Int},
			"total":               &graphql.Field{Type: graphql.Int},
			"full_path":           &graphql.Field{Type: graphql.NewList(geoPointType)},
			"current":             &graphql.Field{Type: recordType},
			"directional_markers": &graphql.Field{Type: graphql.NewList(markerType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"route": &graphql.Field{
				Type:        graphql.NewList(recordType),
				Description: "The stored route in temporal order",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := deps.Locations.FetchRoute(p.Context)
					if err != nil {
						return nil, err
					}
					return []domain.LocationRecord(route), nil
				},
			},
			"frame": &graphql.Field{
				Type:        frameType,
				Description: "The frame a playback shows at cursor",
				Args: graphql.FieldConfigArgument{
					"cursor": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cursor := p.Args["cursor"].(int)
					route, err := deps.Locations.FetchRoute(p.Context)
					if err != nil {
						return nil, err
					}
					if cursor < 0 || (len(route) > 0 && cursor >= len(route)) || (len(route) == 0 && cursor != 0) {
						return nil, fmt.Errorf("cursor %d out of range for %d records", cursor, len(route))
					}
					return playback.Render(route, cursor, playback.PhaseAt(cursor, len(route)), deps.Pattern), nil
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
	schema, err := buildSchema(deps)
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
