// Package kioskrpc exposes card scans to networked readers over gRPC.  The
// service uses protobuf well-known types only, so it is registered with a
// hand-written descriptor instead of generated stubs.
package kioskrpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/types"
	"github.com/BrandonDHaskell/roomlog/internal/roomlog/view"
)

const (
	ServiceName = "roomlog.v1.Kiosk"

	scanMethod  = "/" + ServiceName + "/Scan"
	todayMethod = "/" + ServiceName + "/Today"
)

// KioskServer is the server side of roomlog.v1.Kiosk.
type KioskServer interface {
	Scan(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Today(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

var kioskServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KioskServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Scan", Handler: scanHandler},
		{MethodName: "Today", Handler: todayHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "roomlog/v1/kiosk.proto",
}

// RegisterKioskServer registers srv on s.
func RegisterKioskServer(s grpc.ServiceRegistrar, srv KioskServer) {
	s.RegisterService(&kioskServiceDesc, srv)
}

func scanHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KioskServer).Scan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: scanMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(KioskServer).Scan(ctx, req.(*wrapperspb.StringValue))
	})
}

func todayHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KioskServer).Today(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: todayMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(KioskServer).Today(ctx, req.(*emptypb.Empty))
	})
}

// Client calls roomlog.v1.Kiosk.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Scan(ctx context.Context, cardID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, scanMethod, wrapperspb.String(cardID), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Today(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, todayMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Service implements KioskServer on a Ledger.
type Service struct {
	ledger *service.Ledger
}

func NewService(ledger *service.Ledger) *Service {
	return &Service{ledger: ledger}
}

func (s *Service) Scan(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := s.ledger.Scan(ctx, in.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := types.SignResponseStruct(types.NewSignResponse(res.Event, res.Mode, s.ledger.Now()))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *Service) Today(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	rows := view.Today(s.ledger.Events(), s.ledger.Now())
	out, err := types.RowsStruct(view.Views(rows))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrUnregisteredCard):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSequence):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrDuplicateCard):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrEventNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrEmptyToken),
		errors.Is(err, service.ErrInvalidCardID),
		errors.Is(err, service.ErrInvalidPerson),
		errors.Is(err, service.ErrInvalidKind):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
