package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/mcpconsole/schema"
)

func TestOptions_Console(t *testing.T) {
	ctx := context.Background()
	options := &Options{}
	_, err := flags.ParseArgs(options, []string{"-k", "stdio", "-C", "npx", "--arg=-y", "-A", "server-files", "-E", "ROOT:/tmp", "-x", "http://localhost:3000", "-s", "abc", "-a", "ping"})
	require.NoError(t, err)
	consoleOptions, err := options.console(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", consoleOptions.Proxy.Address)
	assert.Equal(t, "Bearer abc", consoleOptions.ProxyHeaders().Get("X-MCP-Proxy-Auth"))
	assert.Equal(t, schema.TransportStdio, consoleOptions.Server.Kind)
	assert.Equal(t, "console-stdio", consoleOptions.Server.ID)
	assert.Equal(t, "-y server-files", consoleOptions.Server.JoinedArgs())
	assert.Equal(t, "/tmp", consoleOptions.Server.Env["ROOT"])
	assert.Equal(t, "ping", options.Action)
	assert.NoError(t, consoleOptions.Validate())
}

func TestOptions_ConsoleFromFile(t *testing.T) {
	ctx := context.Background()
	URL := "mem://localhost/console/options.yaml"
	config := "proxy:\n  address: http://proxy:12009\nserver:\n  id: srv-9\n  kind: sse\n  url: https://x/sse\n"
	require.NoError(t, afs.New().Upload(ctx, URL, 0o644, bytes.NewReader([]byte(config))))

	options := &Options{}
	_, err := flags.ParseArgs(options, []string{"-f", URL, "-s", "override"})
	require.NoError(t, err)
	consoleOptions, err := options.console(ctx)
	require.NoError(t, err)
	assert.Equal(t, "http://proxy:12009", consoleOptions.Proxy.Address)
	assert.Equal(t, "srv-9", consoleOptions.Server.ID)
	assert.Equal(t, "override", consoleOptions.Proxy.SessionToken)

	options = &Options{}
	_, err = flags.ParseArgs(options, []string{"-f", URL, "-k", "aggregator"})
	require.NoError(t, err)
	consoleOptions, err = options.console(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.TransportAggregator, consoleOptions.Server.Kind)
	assert.Equal(t, "default", consoleOptions.Server.ID)
}

func TestRun_InvalidKind(t *testing.T) {
	err := Run([]string{"-k", "websocket", "-u", "ws://x"})
	assert.ErrorIs(t, err, schema.ErrUnsupportedTransport)
}
