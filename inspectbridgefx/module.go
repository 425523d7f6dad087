// Package inspectbridgefx integrates the bridge client with go.uber.org/fx.
package inspectbridgefx

import (
	"context"

	"go.uber.org/fx"

	inspectbridge "github.com/example/inspect-bridge-go"
)

// Module creates an fx module that provides a bridge client built from the
// given config. The client is shut down on fx.OnStop.
func Module(cfg inspectbridge.ClientConfig) fx.Option {
	return fx.Module("inspect-bridge",
		fx.Provide(func(lc fx.Lifecycle) (*inspectbridge.Client, error) {
			client, err := inspectbridge.NewClient(cfg)
			if err != nil {
				return nil, err
			}

			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return client.Shutdown()
				},
			})

			return client, nil
		}),
	)
}

// RegisterPlugin returns an fx.Option that builds a plugin with the given
// constructor and adds it to the client on startup.
//
// Example:
//
//	fx.New(
//	    inspectbridgefx.Module(cfg),
//	    inspectbridgefx.RegisterPlugin(func() *NetworkPlugin { return &NetworkPlugin{} }),
//	)
func RegisterPlugin[P inspectbridge.Plugin](constructor func() P) fx.Option {
	return fx.Invoke(func(client *inspectbridge.Client) error {
		return client.AddPlugin(constructor())
	})
}
