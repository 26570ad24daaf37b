package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// DirectoryServiceName は gRPC のサービス名です。
const DirectoryServiceName = "directory.v1.DirectoryService"

// DirectoryServiceServer は DirectoryService のサーバー側インターフェースです。
// メッセージはすべて google.protobuf.Struct で表現します。
type DirectoryServiceServer interface {
	ListEmployees(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListNewHires(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetDepartments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetVisibility(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// DirectoryServiceDesc は DirectoryService の grpc.ServiceDesc です。
var DirectoryServiceDesc = grpc.ServiceDesc{
	ServiceName: DirectoryServiceName,
	HandlerType: (*DirectoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListEmployees", Handler: unaryHandler("ListEmployees", DirectoryServiceServer.ListEmployees)},
		{MethodName: "ListNewHires", Handler: unaryHandler("ListNewHires", DirectoryServiceServer.ListNewHires)},
		{MethodName: "GetDepartments", Handler: unaryHandler("GetDepartments", DirectoryServiceServer.GetDepartments)},
		{MethodName: "GetProfile", Handler: unaryHandler("GetProfile", DirectoryServiceServer.GetProfile)},
		{MethodName: "UpdateProfile", Handler: unaryHandler("UpdateProfile", DirectoryServiceServer.UpdateProfile)},
		{MethodName: "SetVisibility", Handler: unaryHandler("SetVisibility", DirectoryServiceServer.SetVisibility)},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterDirectoryServiceServer は DirectoryService をサーバーに登録します。
func RegisterDirectoryServiceServer(s grpc.ServiceRegistrar, srv DirectoryServiceServer) {
	s.RegisterService(&DirectoryServiceDesc, srv)
}

// FullMethod はメソッド名から gRPC のフルメソッド名を返します。
func FullMethod(method string) string {
	return "/" + DirectoryServiceName + "/" + method
}

type unaryMethod func(DirectoryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DirectoryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DirectoryServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
