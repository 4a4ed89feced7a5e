package plugin

import (
	"context"
	"fmt"

	hcplugin "github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/felixgeelhaar/studyplan/internal/provider"
)

// Version of the gateway contract.
const Version = "1.0"

// HandshakeConfig is used to handshake between host and plugin.
var HandshakeConfig = hcplugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "STUDYPLAN_PLUGIN_MAGIC_COOKIE",
	MagicCookieValue: "studyplan-gateway",
}

// PluginName is the key a gateway is dispensed under.
const PluginName = "gateway"

// PluginMap returns the plugins a host can dispense, or a plugin serves when
// impl is set.
func PluginMap(impl provider.Provider) map[string]hcplugin.Plugin {
	return map[string]hcplugin.Plugin{
		PluginName: &GatewayGRPCPlugin{Impl: impl},
	}
}

// GatewayGRPCPlugin is the implementation of hcplugin.GRPCPlugin so we can
// serve/consume a gateway.
type GatewayGRPCPlugin struct {
	hcplugin.NetRPCUnsupportedPlugin
	Impl provider.Provider
}

func (p *GatewayGRPCPlugin) GRPCServer(broker *hcplugin.GRPCBroker, s *grpc.Server) error {
	RegisterGatewayServer(s, &gatewayServer{impl: p.Impl})
	return nil
}

func (p *GatewayGRPCPlugin) GRPCClient(ctx context.Context, broker *hcplugin.GRPCBroker, c *grpc.ClientConn) (interface{}, error) {
	return NewGatewayClient(c), nil
}

// gatewayServer adapts a provider.Provider to GatewayServer.
type gatewayServer struct {
	impl provider.Provider
}

func (s *gatewayServer) Describe(ctx context.Context, _ *DescribeRequest) (*DescribeResponse, error) {
	return &DescribeResponse{Name: s.impl.Name(), Version: Version}, nil
}

func (s *gatewayServer) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if req.Prompt == "" {
		return nil, status.Error(codes.InvalidArgument, "prompt is required")
	}
	resp, err := s.impl.Generate(ctx, req.Prompt)
	if err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &GenerateResponse{
		Content:          resp.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// GatewayClient is a provider.Provider that talks to a plugin over gRPC.
type GatewayClient struct {
	conn grpc.ClientConnInterface
	name string
}

var _ provider.Provider = (*GatewayClient)(nil)

func NewGatewayClient(conn grpc.ClientConnInterface) *GatewayClient {
	return &GatewayClient{conn: conn, name: "plugin"}
}

// Describe asks the plugin for its name and remembers it.
func (c *GatewayClient) Describe(ctx context.Context) (*DescribeResponse, error) {
	out := new(DescribeResponse)
	if err := c.conn.Invoke(ctx, describeMethod, &DescribeRequest{}, out, callJSON()); err != nil {
		return nil, fmt.Errorf("describe gateway plugin: %w", err)
	}
	if out.Name != "" {
		c.name = "plugin:" + out.Name
	}
	return out, nil
}

func (c *GatewayClient) Name() string {
	return c.name
}

func (c *GatewayClient) Generate(ctx context.Context, prompt string) (*provider.Response, error) {
	out := new(GenerateResponse)
	if err := c.conn.Invoke(ctx, generateMethod, &GenerateRequest{Prompt: prompt}, out, callJSON()); err != nil {
		if st, ok := status.FromError(err); ok {
			err = fmt.Errorf("%s: %s", st.Code(), st.Message())
		}
		return nil, &provider.GenerationError{Provider: c.name, Err: err}
	}
	if out.Content == "" {
		return nil, &provider.GenerationError{Provider: c.name, Err: provider.ErrEmptyResponse}
	}
	return &provider.Response{
		Content: out.Content,
		Usage: provider.Usage{
			PromptTokens:     out.PromptTokens,
			CompletionTokens: out.CompletionTokens,
			TotalTokens:      out.TotalTokens,
		},
	}, nil
}
