package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"syscall"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/ratelimit"
)

// Server wraps the MCP SDK server around a running simulation engine so an
// agent can build and poke networks over stdio.
type Server struct {
	server       *sdk.Server
	engine       *engine.Engine
	toolLimiters ratelimit.ToolLimiters
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "pulse")
	Version string // Server version
}

// NewServer creates a new MCP server exposing the engine's call surface.
// The engine should already be started; the server never owns its lifecycle
// beyond stopping it on shutdown.
func NewServer(cfg *Config, eng *engine.Engine) (*Server, error) {
	if eng == nil {
		return nil, fmt.Errorf("engine is required")
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			// Client initialized, ready to serve
		},
	})

	s := &Server{
		server:       mcpServer,
		engine:       eng,
		toolLimiters: ratelimit.NewToolLimiters(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all pulse MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pulse_create_neuron",
		Description: "Place a neuron on the canvas; returns its id",
	}, s.handleCreateNeuron)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pulse_remove_neuron",
		Description: "Remove a neuron and every connection touching it",
	}, s.handleRemoveNeuron)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pulse_connect",
		Description: "Create or update a weighted, speed-parameterized connection between two neurons",
	}, s.handleConnect)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pulse_disconnect",
		Description: "Remove a connection, cancelling any in-flight signal on it",
	}, s.handleDisconnect)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pulse_fire",
		Description: "Manually trigger a neuron to fire on the next simulation tick",
	}, s.handleFire)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pulse_set_dc",
		Description: "Set a neuron's continuous drive level (0-1, clamped)",
	}, s.handleSetDC)

	// jsonschema inference rejects map[int64]float64 (non-string keys), so
	// declare the schema encoding/json already produces: an object with
	// number values.
	networkOutputSchema, err := jsonschema.For[NetworkOutput](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[map[int64]float64](): {
				Type:                 "object",
				AdditionalProperties: &jsonschema.Schema{Type: "number"},
			},
		},
	})
	if err != nil {
		panic(fmt.Sprintf("registerTools: pulse_network output schema: %v", err))
	}

	sdk.AddTool(s.server, &sdk.Tool{
		Name:         "pulse_network",
		Description:  "Snapshot the whole network: neurons with live state, plus connections",
		OutputSchema: networkOutputSchema,
	}, s.handleNetwork)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "pulse_reset",
		Description: "Clear charge and firing flags on one neuron or the whole network",
	}, s.handleReset)
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle OS signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	err := s.server.Run(ctx, &sdk.StdioTransport{})

	s.engine.Stop()

	return err
}
