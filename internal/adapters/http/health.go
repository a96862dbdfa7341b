package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).String(),
			"version": "dev",
		}
		if deps.Sessions != nil {
			resp["sessions"] = deps.Sessions.Len()
		}
		return c.JSON(resp)
	}
}

var errDisconnected = errors.New("disconnected")

// readinessCheck probes one dependency. required dependencies fail the
// readiness check when absent.
type readinessCheck struct {
	name     string
	present  bool
	required bool
	probe    func(ctx context.Context) (string, error)
}

// ReadyHandler checks PostGIS, NATS, and cache connectivity. Only the
// database is required; NATS and the cache degrade gracefully.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), 3*time.Second)
		defer cancel()

		checks := []readinessCheck{
			{name: "database", present: deps.DB != nil, required: true, probe: func(ctx context.Context) (string, error) {
				v, err := deps.DB.PostGISVersion(ctx)
				return "ok (postgis " + v + ")", err
			}},
			{name: "nats", present: deps.NATS != nil, probe: func(context.Context) (string, error) {
				if !deps.NATS.IsConnected() {
					return "disconnected", errDisconnected
				}
				return "ok", nil
			}},
			{name: "cache", present: deps.Cache != nil, probe: func(ctx context.Context) (string, error) {
				return "ok", deps.Cache.Ping(ctx)
			}},
		}

		results := make(map[string]string, len(checks))
		allOK := true
		for _, chk := range checks {
			if !chk.present {
				results[chk.name] = "not configured"
				if chk.required {
					allOK = false
				}
				continue
			}
			msg, err := chk.probe(ctx)
			switch {
			case errors.Is(err, errDisconnected):
				results[chk.name] = msg
				allOK = false
			case err != nil:
				results[chk.name] = "error: " + err.Error()
				allOK = false
			default:
				results[chk.name] = msg
			}
		}

		status, code := "ready", 200
		if !allOK {
			status, code = "not ready", 503
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": results,
		})
	}
}
