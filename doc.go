// Package mcpconsole wires the MCP console connection stack: the proxy health
// gate and transport factory, the dual tier authorization store, the OAuth
// callback and the connection manager.
//
// Options can be populated from CLI flags or a YAML file:
//
//	options, _ := mcpconsole.LoadOptions(ctx, "~/.mcpconsole/config.yaml")
//	console, _ := mcpconsole.New(ctx, options)
//	defer console.Close()
//	err := console.Manager.Connect(ctx)
package mcpconsole
