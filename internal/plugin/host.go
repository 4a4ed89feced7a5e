package plugin

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/hashicorp/go-hclog"
	hcplugin "github.com/hashicorp/go-plugin"

	"github.com/felixgeelhaar/studyplan/internal/provider"
)

// Gateway is a running plugin process exposed as a provider.Provider.
type Gateway struct {
	*GatewayClient
	client *hcplugin.Client
}

// Launch starts the plugin binary at path and connects to it. Plugin logs go
// to logOut; pass nil to discard them. Close must be called to stop the
// process.
func Launch(ctx context.Context, path string, logOut io.Writer, args ...string) (*Gateway, error) {
	if logOut == nil {
		logOut = io.Discard
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "gateway-plugin",
		Output: logOut,
		Level:  hclog.Warn,
	})

	client := hcplugin.NewClient(&hcplugin.ClientConfig{
		HandshakeConfig:  HandshakeConfig,
		Plugins:          PluginMap(nil),
		Cmd:              exec.Command(path, args...), // #nosec G204
		AllowedProtocols: []hcplugin.Protocol{hcplugin.ProtocolGRPC},
		Logger:           logger,
	})

	rpcClient, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start gateway plugin %s: %w", path, err)
	}
	raw, err := rpcClient.Dispense(PluginName)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense gateway plugin: %w", err)
	}
	gw, ok := raw.(*GatewayClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("plugin %s is not a gateway (%T)", path, raw)
	}
	if _, err := gw.Describe(ctx); err != nil {
		client.Kill()
		return nil, err
	}
	return &Gateway{GatewayClient: gw, client: client}, nil
}

// Close stops the plugin process.
func (g *Gateway) Close() error {
	g.client.Kill()
	return nil
}

// Serve runs impl as a gateway plugin. It blocks until the host disconnects
// and is meant to be called from a plugin binary's main.
func Serve(impl provider.Provider) {
	hcplugin.Serve(&hcplugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap(impl),
		GRPCServer:      hcplugin.DefaultGRPCServer,
		Logger: hclog.New(&hclog.LoggerOptions{
			Name:       impl.Name(),
			Level:      hclog.Info,
			JSONFormat: true,
		}),
	})
}
