package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geodraw/internal/adapters/postgres"
	"github.com/samirrijal/geodraw/internal/adapters/valkey"
	"github.com/samirrijal/geodraw/internal/core/usecases"
	"github.com/samirrijal/geodraw/internal/core/validation"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sessions  *usecases.SessionManager
	Locations *usecases.LocationService
	Validator *validation.Validator
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache
}

func (d *Dependencies) validator() *validation.Validator {
	if d.Validator != nil {
		return d.Validator
	}
	return validation.New(validation.DefaultLimits())
}
