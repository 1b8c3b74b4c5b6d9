// Package config reads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from environment variables declared with `env` tags.
// Settings follow the same shape throughout the service:
//
//	type HTTP struct {
//	    Port        int    `env:"HTTP_PORT" envDefault:"8080"`
//	    CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
//	}
//
// A variable marked `required` that is absent fails the load, so the server
// refuses to start half-configured instead of limping along.
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("load environment config: %w", err)
	}
	return nil
}
