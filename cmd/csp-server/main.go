// Command csp-server runs the connector runtime with every connector module
// compiled into this binary.
package main

import (
	mathconn "github.com/joeydtaylor/steeze-connect/pkg/connectors/math"
	"github.com/joeydtaylor/steeze-connect/pkg/serverfx"
	"go.uber.org/fx"
)

// connectorModules is the definitive list of connectors served by csp-server.
var connectorModules = []serverfx.ModuleFactory{
	mathconn.New,
}

func main() {
	fx.New(
		serverfx.Module(serverfx.WithModuleFactories(connectorModules...)),
	).Run()
}
