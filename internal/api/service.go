package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "mockchat.v1.ChatService"

// Method names of the chat service.
const (
	MethodLogin        = "Login"
	MethodRegister     = "Register"
	MethodLogout       = "Logout"
	MethodWhoami       = "Whoami"
	MethodListChats    = "ListChats"
	MethodSelectChat   = "SelectChat"
	MethodListMessages = "ListMessages"
	MethodSend         = "Send"
	MethodSetTyping    = "SetTyping"
	MethodSetPresence  = "SetPresence"
	MethodReceive      = "Receive"
	MethodWatch        = "Watch"
)

// FullMethod returns the gRPC path of a method, e.g. "/mockchat.v1.ChatService/Login".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// ChatServer is the server side of the chat service. Requests and responses
// are protobuf Structs; see wire.go for their fields.
type ChatServer interface {
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Whoami(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListChats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SelectChat(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMessages(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Send(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetTyping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPresence(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Receive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Watch(*structpb.Struct, EventStream) error
}

// EventStream is the server side of a Watch call.
type EventStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

type eventStream struct {
	grpc.ServerStream
}

func (s eventStream) Send(m *structpb.Struct) error {
	return s.SendMsg(m)
}

type unaryCall func(ChatServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChatServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ChatServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ServiceDesc describes the chat service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodLogin, ChatServer.Login),
		unary(MethodRegister, ChatServer.Register),
		unary(MethodLogout, ChatServer.Logout),
		unary(MethodWhoami, ChatServer.Whoami),
		unary(MethodListChats, ChatServer.ListChats),
		unary(MethodSelectChat, ChatServer.SelectChat),
		unary(MethodListMessages, ChatServer.ListMessages),
		unary(MethodSend, ChatServer.Send),
		unary(MethodSetTyping, ChatServer.SetTyping),
		unary(MethodSetPresence, ChatServer.SetPresence),
		unary(MethodReceive, ChatServer.Receive),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodWatch,
			ServerStreams: true,
			Handler: func(srv any, stream grpc.ServerStream) error {
				in := new(structpb.Struct)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(ChatServer).Watch(in, eventStream{stream})
			},
		},
	},
	Metadata: "mockchat/v1/chat.proto",
}

// RegisterChatServer registers srv on s.
func RegisterChatServer(s grpc.ServiceRegistrar, srv ChatServer) {
	s.RegisterService(&ServiceDesc, srv)
}
