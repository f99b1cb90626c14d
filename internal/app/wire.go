//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

// InitializeApplication assembles an Application from cfg. The cleanup releases the
// snapshot store.
func InitializeApplication(cfg Config, logging LoggingConfig) (*Application, func(), error) {
	wire.Build(AppSet)
	return nil, nil, nil
}
