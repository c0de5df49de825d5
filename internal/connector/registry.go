package connector

import "github.com/crimson-sun/preflight/internal/model"

// Constructor is a function that creates a new Connector instance.
type Constructor func(Options) Connector

var registry = map[model.Service]Constructor{}

// Register adds a connector constructor for the given service.
func Register(service model.Service, ctor Constructor) {
	registry[service] = ctor
}

// Build constructs one connector per registered service.
func Build(opts Options) map[model.Service]Connector {
	out := make(map[model.Service]Connector, len(registry))
	for service, ctor := range registry {
		out[service] = ctor(opts)
	}
	return out
}
