package console

import (
	"context"

	"github.com/viant/mcpconsole"
	"github.com/viant/mcpconsole/schema"
)

// Options defines command line options
type Options struct {
	mcpconsole.Options
	ConfigURL string `short:"f" long:"file" description:"yaml options file (any afs URL)"`

	ID          string            `short:"i" long:"id" description:"server id"`
	Kind        string            `short:"k" long:"kind" description:"transport kind: stdio|sse|streamable-http|aggregator"`
	URL         string            `short:"u" long:"url" description:"upstream server url"`
	Command     string            `short:"C" long:"command" description:"stdio command"`
	Args        []string          `short:"A" long:"arg" description:"stdio command argument"`
	Env         map[string]string `short:"E" long:"env" description:"stdio environment KEY:VALUE"`
	BearerToken string            `short:"b" long:"bearer" description:"upstream bearer token"`

	Action    string `short:"a" long:"action" description:"action to run" choice:"tools" choice:"call" choice:"prompts" choice:"resources" choice:"ping" choice:"complete" default:"tools"`
	Tool      string `short:"t" long:"tool" description:"tool to call, prompt to complete"`
	Arguments string `short:"j" long:"arguments" description:"tool arguments as JSON object"`
	Argument  string `long:"argument" description:"completion argument NAME=VALUE"`
	Listen    string `short:"l" long:"listen" description:"oauth callback listen address, derived from the redirect url by default"`
}

// console returns the console options, file options first, then command line values
func (o *Options) console(ctx context.Context) (*mcpconsole.Options, error) {
	ret := &o.Options
	if o.ConfigURL != "" {
		loaded, err := mcpconsole.LoadOptions(ctx, o.ConfigURL)
		if err != nil {
			return nil, err
		}
		ret = loaded
		if o.Proxy.SessionToken != "" {
			ret.Proxy.SessionToken = o.Proxy.SessionToken
		}
	}
	if o.Kind != "" {
		ret.Server = schema.ServerDescriptor{
			ID:          o.ID,
			Kind:        schema.TransportKind(o.Kind),
			URL:         o.URL,
			Command:     o.Command,
			Args:        o.Args,
			Env:         o.Env,
			BearerToken: o.BearerToken,
		}
		if ret.Server.ID == "" {
			ret.Server.ID = defaultID(&ret.Server)
		}
	}
	ret.Init()
	return ret, nil
}

func defaultID(descriptor *schema.ServerDescriptor) string {
	if descriptor.Kind == schema.TransportAggregator {
		return "default"
	}
	return "console-" + string(descriptor.Kind)
}
