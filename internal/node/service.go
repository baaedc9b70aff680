package node

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ringServiceName = "consistenthasher.v1.Ring"

// RingServer is the server API of the ring service.
type RingServer interface {
	AddBucket(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	// RemoveBucket reports false when the bucket could not be removed in time.
	RemoveBucket(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	AddMember(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	RemoveMember(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	MembersOf(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
	Assignments(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Owner(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

var ringServiceDesc = grpc.ServiceDesc{
	ServiceName: ringServiceName,
	HandlerType: (*RingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddBucket", Handler: unaryHandler("AddBucket", RingServer.AddBucket)},
		{MethodName: "RemoveBucket", Handler: unaryHandler("RemoveBucket", RingServer.RemoveBucket)},
		{MethodName: "AddMember", Handler: unaryHandler("AddMember", RingServer.AddMember)},
		{MethodName: "RemoveMember", Handler: unaryHandler("RemoveMember", RingServer.RemoveMember)},
		{MethodName: "MembersOf", Handler: unaryHandler("MembersOf", RingServer.MembersOf)},
		{MethodName: "Assignments", Handler: unaryHandler("Assignments", RingServer.Assignments)},
		{MethodName: "Owner", Handler: unaryHandler("Owner", RingServer.Owner)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "consistenthasher/v1/ring.proto",
}

// RegisterRingServer registers srv on s.
func RegisterRingServer(s grpc.ServiceRegistrar, srv RingServer) {
	s.RegisterService(&ringServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ringServiceName + "/" + method
}

// unaryHandler adapts a RingServer method to a grpc.MethodHandler, the same
// way protoc-gen-go-grpc output does.
func unaryHandler[Req any, Resp any](method string, call func(RingServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RingServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
