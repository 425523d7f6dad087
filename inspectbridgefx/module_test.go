package inspectbridgefx

import (
	"testing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	inspectbridge "github.com/example/inspect-bridge-go"
)

type testPlugin struct {
	activated bool
}

func (p *testPlugin) Identifier() string                   { return "test" }
func (p *testPlugin) RunsInBackground() bool               { return true }
func (p *testPlugin) OnActivated(inspectbridge.Connection) { p.activated = true }
func (p *testPlugin) OnDeactivated()                       {}

func TestModule(t *testing.T) {
	transport := inspectbridge.NewInMemoryTransport()

	var client *inspectbridge.Client
	app := fxtest.New(t,
		Module(inspectbridge.ClientConfig{Transport: transport}),
		fx.Populate(&client),
	)

	app.RequireStart()
	defer app.RequireStop()

	if client == nil {
		t.Fatal("client is nil")
	}
}

func TestRegisterPlugin(t *testing.T) {
	transport := inspectbridge.NewInMemoryTransport()

	var client *inspectbridge.Client
	p := &testPlugin{}

	app := fxtest.New(t,
		Module(inspectbridge.ClientConfig{Transport: transport}),
		RegisterPlugin(func() *testPlugin { return p }),
		fx.Populate(&client),
	)

	app.RequireStart()
	defer app.RequireStop()

	if !client.HasPlugin("test") {
		t.Error("plugin not registered on startup")
	}

	transport.Bind(client)
	transport.Connect()
	if !p.activated {
		t.Error("background plugin not activated on connect")
	}
}

func TestModule_InvalidConfig(t *testing.T) {
	app := fx.New(
		Module(inspectbridge.ClientConfig{}),
		fx.Invoke(func(*inspectbridge.Client) {}),
		fx.NopLogger,
	)

	if err := app.Err(); err == nil {
		t.Error("app.Err() = nil, want config validation failure")
	}
}
