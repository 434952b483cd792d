package server

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// ExecMethod is the full gRPC method name of Exec.
const ExecMethod = "/tinyrel.Tinyrel/Exec"

// gRPC JSON codec
type jsonCodec struct{}

func (jsonCodec) Name() string                       { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Codec returns the call option clients need to talk to the service.
func Codec() grpc.CallOption { return grpc.ForceCodec(jsonCodec{}) }

// TinyrelServer is the gRPC service interface (manual, no protobuf).
type TinyrelServer interface {
	Exec(context.Context, *ExecRequest) (*ExecResponse, error)
}

func registerTinyrelServer(s *grpc.Server, srv TinyrelServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "tinyrel.Tinyrel",
		HandlerType: (*TinyrelServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Exec", Handler: execHandler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "tinyrel",
	}, srv)
}

func execHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ExecRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TinyrelServer).Exec(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ExecMethod}
	handler := func(ctx context.Context, req any) (any, error) { return srv.(TinyrelServer).Exec(ctx, req.(*ExecRequest)) }
	return interceptor(ctx, in, info, handler)
}

// NewGRPCServer returns a gRPC server exposing svc. A nil auth disables
// token checks.
func NewGRPCServer(svc *Service, auth *Authenticator) *grpc.Server {
	var opts []grpc.ServerOption
	if auth != nil {
		opts = append(opts, grpc.UnaryInterceptor(auth.UnaryInterceptor))
	}
	gs := grpc.NewServer(opts...)
	registerTinyrelServer(gs, svc)
	return gs
}

// Exec calls the Exec method over conn.
func Exec(ctx context.Context, conn grpc.ClientConnInterface, command string) (*ExecResponse, error) {
	var resp ExecResponse
	if err := conn.Invoke(ctx, ExecMethod, &ExecRequest{Command: command}, &resp, Codec()); err != nil {
		return nil, err
	}
	return &resp, nil
}
