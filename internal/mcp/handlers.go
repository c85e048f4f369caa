package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/pulse/internal/neuron"
	"github.com/nvandessel/pulse/internal/ratelimit"
)

func (s *Server) handleCreateNeuron(ctx context.Context, req *sdk.CallToolRequest, args CreateNeuronInput) (*sdk.CallToolResult, CreateNeuronOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "pulse_create_neuron"); err != nil {
		return nil, CreateNeuronOutput{}, err
	}

	n := s.engine.CreateNeuron(neuron.Neuron{
		Position:  args.Position,
		Threshold: args.Threshold,
		DCInput:   args.DC,
		Appearance: neuron.Appearance{
			PresetName: args.Preset,
		},
	})

	return nil, CreateNeuronOutput{
		ID:      n.ID,
		Message: fmt.Sprintf("created neuron %d", n.ID),
	}, nil
}

func (s *Server) handleRemoveNeuron(ctx context.Context, req *sdk.CallToolRequest, args RemoveNeuronInput) (*sdk.CallToolResult, RemoveNeuronOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "pulse_remove_neuron"); err != nil {
		return nil, RemoveNeuronOutput{}, err
	}

	removed := s.engine.RemoveNeuron(args.ID)
	msg := fmt.Sprintf("removed neuron %d", args.ID)
	if !removed {
		msg = fmt.Sprintf("neuron %d not found", args.ID)
	}
	return nil, RemoveNeuronOutput{Removed: removed, Message: msg}, nil
}

func (s *Server) handleConnect(ctx context.Context, req *sdk.CallToolRequest, args ConnectInput) (*sdk.CallToolResult, ConnectOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "pulse_connect"); err != nil {
		return nil, ConnectOutput{}, err
	}

	created := s.engine.CreateConnection(args.Source, args.Target, args.Weight, args.Speed)
	msg := fmt.Sprintf("connected %d -> %d", args.Source, args.Target)
	if !created {
		msg = "one or both endpoints do not exist"
	}
	return nil, ConnectOutput{Created: created, Message: msg}, nil
}

func (s *Server) handleDisconnect(ctx context.Context, req *sdk.CallToolRequest, args DisconnectInput) (*sdk.CallToolResult, DisconnectOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "pulse_disconnect"); err != nil {
		return nil, DisconnectOutput{}, err
	}

	removed := s.engine.RemoveConnection(args.Source, args.Target)
	msg := fmt.Sprintf("disconnected %d -> %d", args.Source, args.Target)
	if !removed {
		msg = "connection does not exist"
	}
	return nil, DisconnectOutput{Removed: removed, Message: msg}, nil
}

func (s *Server) handleFire(ctx context.Context, req *sdk.CallToolRequest, args FireInput) (*sdk.CallToolResult, FireOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "pulse_fire"); err != nil {
		return nil, FireOutput{}, err
	}

	fired := s.engine.FireNeuron(args.ID)
	msg := fmt.Sprintf("neuron %d will fire on the next tick", args.ID)
	if !fired {
		msg = fmt.Sprintf("neuron %d is unknown, firing, or refractory", args.ID)
	}
	return nil, FireOutput{Fired: fired, Message: msg}, nil
}

func (s *Server) handleSetDC(ctx context.Context, req *sdk.CallToolRequest, args SetDCInput) (*sdk.CallToolResult, SetDCOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "pulse_set_dc"); err != nil {
		return nil, SetDCOutput{}, err
	}

	ok := s.engine.SetDCInput(args.ID, args.Value, args.ResetCharge)
	if !ok {
		return nil, SetDCOutput{Message: fmt.Sprintf("neuron %d not found", args.ID)}, nil
	}

	stored := neuron.Clamp01(args.Value)
	return nil, SetDCOutput{
		OK:      true,
		Value:   stored,
		Message: fmt.Sprintf("neuron %d drive set to %.2f", args.ID, stored),
	}, nil
}

func (s *Server) handleNetwork(ctx context.Context, req *sdk.CallToolRequest, args NetworkInput) (*sdk.CallToolResult, NetworkOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "pulse_network"); err != nil {
		return nil, NetworkOutput{}, err
	}

	neurons := s.engine.Snapshot()
	conns := s.engine.Connections()
	return nil, NetworkOutput{
		Neurons:     neurons,
		Connections: conns,
		NeuronCount: len(neurons),
		EdgeCount:   len(conns),
	}, nil
}

func (s *Server) handleReset(ctx context.Context, req *sdk.CallToolRequest, args ResetInput) (*sdk.CallToolResult, ResetOutput, error) {
	if err := ratelimit.CheckLimit(s.toolLimiters, "pulse_reset"); err != nil {
		return nil, ResetOutput{}, err
	}

	if args.All {
		s.engine.ResetAllNeurons()
		return nil, ResetOutput{OK: true, Message: "reset all neurons"}, nil
	}

	if !s.engine.ResetNeuron(args.ID) {
		return nil, ResetOutput{Message: fmt.Sprintf("neuron %d not found", args.ID)}, nil
	}
	return nil, ResetOutput{OK: true, Message: fmt.Sprintf("reset neuron %d", args.ID)}, nil
}
