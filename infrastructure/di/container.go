package di

import (
	"go.uber.org/zap"

	"fsmviz/application/ports"
	"fsmviz/application/services"
	"fsmviz/domain/core/layout"
	"fsmviz/infrastructure/config"
	"fsmviz/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	GraphRepo      ports.GraphRepository
	Metrics        *observability.Metrics
	Engine         *layout.Engine
	GraphService   *services.GraphService
	SessionService *services.SessionService
}
