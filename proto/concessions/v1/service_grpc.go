package concessionsv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName — полное имя gRPC-сервиса.
const ServiceName = "concessions.v1.ConcessionsService"

const (
	ConcessionsService_ListMenu_FullMethodName      = "/" + ServiceName + "/ListMenu"
	ConcessionsService_OpenCart_FullMethodName      = "/" + ServiceName + "/OpenCart"
	ConcessionsService_GetCart_FullMethodName       = "/" + ServiceName + "/GetCart"
	ConcessionsService_AddItem_FullMethodName       = "/" + ServiceName + "/AddItem"
	ConcessionsService_RemoveItem_FullMethodName    = "/" + ServiceName + "/RemoveItem"
	ConcessionsService_SetSeatNumber_FullMethodName = "/" + ServiceName + "/SetSeatNumber"
	ConcessionsService_Checkout_FullMethodName      = "/" + ServiceName + "/Checkout"
	ConcessionsService_CloseCart_FullMethodName     = "/" + ServiceName + "/CloseCart"
)

// ConcessionsServiceClient — клиент витрины. Все вызовы идут с content-subtype json.
type ConcessionsServiceClient interface {
	ListMenu(ctx context.Context, in *ListMenuRequest, opts ...grpc.CallOption) (*ListMenuResponse, error)
	OpenCart(ctx context.Context, in *OpenCartRequest, opts ...grpc.CallOption) (*OpenCartResponse, error)
	GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*GetCartResponse, error)
	AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*AddItemResponse, error)
	RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*RemoveItemResponse, error)
	SetSeatNumber(ctx context.Context, in *SetSeatNumberRequest, opts ...grpc.CallOption) (*SetSeatNumberResponse, error)
	Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*CheckoutResponse, error)
	CloseCart(ctx context.Context, in *CloseCartRequest, opts ...grpc.CallOption) (*CloseCartResponse, error)
}

type concessionsServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewConcessionsServiceClient создаёт клиента поверх соединения.
func NewConcessionsServiceClient(cc grpc.ClientConnInterface) ConcessionsServiceClient {
	return &concessionsServiceClient{cc: cc}
}

func (c *concessionsServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	callOpts := make([]grpc.CallOption, 0, len(opts)+1)
	callOpts = append(callOpts, grpc.CallContentSubtype(CodecName))
	callOpts = append(callOpts, opts...)
	return c.cc.Invoke(ctx, method, in, out, callOpts...)
}

func (c *concessionsServiceClient) ListMenu(ctx context.Context, in *ListMenuRequest, opts ...grpc.CallOption) (*ListMenuResponse, error) {
	out := new(ListMenuResponse)
	if err := c.invoke(ctx, ConcessionsService_ListMenu_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *concessionsServiceClient) OpenCart(ctx context.Context, in *OpenCartRequest, opts ...grpc.CallOption) (*OpenCartResponse, error) {
	out := new(OpenCartResponse)
	if err := c.invoke(ctx, ConcessionsService_OpenCart_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *concessionsServiceClient) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*GetCartResponse, error) {
	out := new(GetCartResponse)
	if err := c.invoke(ctx, ConcessionsService_GetCart_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *concessionsServiceClient) AddItem(ctx context.Context, in *AddItemRequest, opts ...grpc.CallOption) (*AddItemResponse, error) {
	out := new(AddItemResponse)
	if err := c.invoke(ctx, ConcessionsService_AddItem_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *concessionsServiceClient) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*RemoveItemResponse, error) {
	out := new(RemoveItemResponse)
	if err := c.invoke(ctx, ConcessionsService_RemoveItem_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *concessionsServiceClient) SetSeatNumber(ctx context.Context, in *SetSeatNumberRequest, opts ...grpc.CallOption) (*SetSeatNumberResponse, error) {
	out := new(SetSeatNumberResponse)
	if err := c.invoke(ctx, ConcessionsService_SetSeatNumber_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *concessionsServiceClient) Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*CheckoutResponse, error) {
	out := new(CheckoutResponse)
	if err := c.invoke(ctx, ConcessionsService_Checkout_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *concessionsServiceClient) CloseCart(ctx context.Context, in *CloseCartRequest, opts ...grpc.CallOption) (*CloseCartResponse, error) {
	out := new(CloseCartResponse)
	if err := c.invoke(ctx, ConcessionsService_CloseCart_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// ConcessionsServiceServer — серверная часть контракта.
type ConcessionsServiceServer interface {
	ListMenu(context.Context, *ListMenuRequest) (*ListMenuResponse, error)
	OpenCart(context.Context, *OpenCartRequest) (*OpenCartResponse, error)
	GetCart(context.Context, *GetCartRequest) (*GetCartResponse, error)
	AddItem(context.Context, *AddItemRequest) (*AddItemResponse, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*RemoveItemResponse, error)
	SetSeatNumber(context.Context, *SetSeatNumberRequest) (*SetSeatNumberResponse, error)
	Checkout(context.Context, *CheckoutRequest) (*CheckoutResponse, error)
	CloseCart(context.Context, *CloseCartRequest) (*CloseCartResponse, error)
	mustEmbedUnimplementedConcessionsServiceServer()
}

// UnimplementedConcessionsServiceServer нужно встраивать в реализации ради совместимости.
type UnimplementedConcessionsServiceServer struct{}

func (UnimplementedConcessionsServiceServer) ListMenu(context.Context, *ListMenuRequest) (*ListMenuResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMenu not implemented")
}

func (UnimplementedConcessionsServiceServer) OpenCart(context.Context, *OpenCartRequest) (*OpenCartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method OpenCart not implemented")
}

func (UnimplementedConcessionsServiceServer) GetCart(context.Context, *GetCartRequest) (*GetCartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCart not implemented")
}

func (UnimplementedConcessionsServiceServer) AddItem(context.Context, *AddItemRequest) (*AddItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddItem not implemented")
}

func (UnimplementedConcessionsServiceServer) RemoveItem(context.Context, *RemoveItemRequest) (*RemoveItemResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveItem not implemented")
}

func (UnimplementedConcessionsServiceServer) SetSeatNumber(context.Context, *SetSeatNumberRequest) (*SetSeatNumberResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetSeatNumber not implemented")
}

func (UnimplementedConcessionsServiceServer) Checkout(context.Context, *CheckoutRequest) (*CheckoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Checkout not implemented")
}

func (UnimplementedConcessionsServiceServer) CloseCart(context.Context, *CloseCartRequest) (*CloseCartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CloseCart not implemented")
}

func (UnimplementedConcessionsServiceServer) mustEmbedUnimplementedConcessionsServiceServer() {}

// RegisterConcessionsServiceServer регистрирует реализацию на gRPC-сервере.
func RegisterConcessionsServiceServer(s grpc.ServiceRegistrar, srv ConcessionsServiceServer) {
	s.RegisterService(&ConcessionsService_ServiceDesc, srv)
}

func _ConcessionsService_ListMenu_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListMenuRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConcessionsServiceServer).ListMenu(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConcessionsService_ListMenu_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConcessionsServiceServer).ListMenu(ctx, req.(*ListMenuRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConcessionsService_OpenCart_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(OpenCartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConcessionsServiceServer).OpenCart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConcessionsService_OpenCart_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConcessionsServiceServer).OpenCart(ctx, req.(*OpenCartRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConcessionsService_GetCart_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetCartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConcessionsServiceServer).GetCart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConcessionsService_GetCart_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConcessionsServiceServer).GetCart(ctx, req.(*GetCartRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConcessionsService_AddItem_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConcessionsServiceServer).AddItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConcessionsService_AddItem_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConcessionsServiceServer).AddItem(ctx, req.(*AddItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConcessionsService_RemoveItem_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RemoveItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConcessionsServiceServer).RemoveItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConcessionsService_RemoveItem_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConcessionsServiceServer).RemoveItem(ctx, req.(*RemoveItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConcessionsService_SetSeatNumber_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SetSeatNumberRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConcessionsServiceServer).SetSeatNumber(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConcessionsService_SetSeatNumber_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConcessionsServiceServer).SetSeatNumber(ctx, req.(*SetSeatNumberRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConcessionsService_Checkout_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConcessionsServiceServer).Checkout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConcessionsService_Checkout_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConcessionsServiceServer).Checkout(ctx, req.(*CheckoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _ConcessionsService_CloseCart_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CloseCartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConcessionsServiceServer).CloseCart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ConcessionsService_CloseCart_FullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ConcessionsServiceServer).CloseCart(ctx, req.(*CloseCartRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ConcessionsService_ServiceDesc описывает сервис для grpc.Server.
var ConcessionsService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConcessionsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListMenu",
			Handler:    _ConcessionsService_ListMenu_Handler,
		},
		{
			MethodName: "OpenCart",
			Handler:    _ConcessionsService_OpenCart_Handler,
		},
		{
			MethodName: "GetCart",
			Handler:    _ConcessionsService_GetCart_Handler,
		},
		{
			MethodName: "AddItem",
			Handler:    _ConcessionsService_AddItem_Handler,
		},
		{
			MethodName: "RemoveItem",
			Handler:    _ConcessionsService_RemoveItem_Handler,
		},
		{
			MethodName: "SetSeatNumber",
			Handler:    _ConcessionsService_SetSeatNumber_Handler,
		},
		{
			MethodName: "Checkout",
			Handler:    _ConcessionsService_Checkout_Handler,
		},
		{
			MethodName: "CloseCart",
			Handler:    _ConcessionsService_CloseCart_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "concessions/v1/concessions_service.proto",
}
