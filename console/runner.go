package console

import (
	"context"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/viant/mcpconsole"
)

// Run parses args, connects to the configured server and runs the selected action
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx := context.Background()
	consoleOptions, err := options.console(ctx)
	if err != nil {
		return err
	}
	console, err := mcpconsole.New(ctx, consoleOptions)
	if err != nil {
		return err
	}
	defer console.Close()
	service := NewService(console, os.Stdout)
	return service.Run(ctx, options)
}
