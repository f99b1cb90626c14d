//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
)

var CoreInfraSet = wire.NewSet(
	NewLogging,
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewSnapshotStore,
)

var InventorySet = wire.NewSet(
	NewRoots,
	NewScanner,
	NewExtractor,
	NewInferencer,
	NewServiceLookup,
	NewBuilder,
)

var RoutingSet = wire.NewSet(
	NewRanker,
	NewDecider,
	NewPreferencesLoader,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	InventorySet,
	RoutingSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
