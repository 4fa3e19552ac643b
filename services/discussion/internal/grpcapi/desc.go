package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "discussion.v1.DiscussionService"

// DiscussionServer is the gRPC surface. Messages are google.protobuf.Struct
// values carrying the same JSON shapes as the HTTP API.
type DiscussionServer interface {
	CreateComment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReadDiscussion(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReadReplies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateComment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteComment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	React(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Unreact(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(DiscussionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DiscussionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(DiscussionServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiscussionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateComment", DiscussionServer.CreateComment),
		unary("ReadDiscussion", DiscussionServer.ReadDiscussion),
		unary("ReadReplies", DiscussionServer.ReadReplies),
		unary("UpdateComment", DiscussionServer.UpdateComment),
		unary("DeleteComment", DiscussionServer.DeleteComment),
		unary("React", DiscussionServer.React),
		unary("Unreact", DiscussionServer.Unreact),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "discussion/v1/discussion.proto",
}

// Register attaches srv to s.
func Register(s grpc.ServiceRegistrar, srv DiscussionServer) {
	s.RegisterService(&serviceDesc, srv)
}
