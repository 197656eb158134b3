// Package control implements the bridge's local control service: a small
// gRPC API served on the IPC socket that the CLI uses to inspect a running
// bridge and to inject or read host clipboard content.
//
// The service is described by hand with well-known protobuf types
// (structpb, emptypb), so no generated code is needed.
package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "clipbridge.v1.Control"

// Server is the control service API.
type Server interface {
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Copy(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Paste(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Tick(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Input(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

func fullMethod(name string) string { return "/" + serviceName + "/" + name }

func method[Req proto.Message](name string, newReq func() Req, call func(Server, context.Context, Req) (proto.Message, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(Server), ctx, req.(Req))
			})
		},
	}
}

func newEmpty() *emptypb.Empty   { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

// ServiceDesc registers a Server with a grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		method("Status", newEmpty, func(s Server, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
			return s.Status(ctx, in)
		}),
		method("Copy", newStruct, func(s Server, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.Copy(ctx, in)
		}),
		method("Paste", newEmpty, func(s Server, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
			return s.Paste(ctx, in)
		}),
		method("Tick", newEmpty, func(s Server, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
			return s.Tick(ctx, in)
		}),
		method("Input", newStruct, func(s Server, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.Input(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "clipbridge/v1/control.proto",
}

// Register adds s to gs.
func Register(gs grpc.ServiceRegistrar, s Server) {
	gs.RegisterService(&ServiceDesc, s)
}
