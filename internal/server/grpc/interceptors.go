package grpcserver

import (
	"context"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// callLevel picks the log level for a finished health call. Healthy answers
// arrive every few seconds and stay at debug.
func callLevel(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK, codes.NotFound, codes.Canceled:
		return zapcore.DebugLevel
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

func remoteField(ctx context.Context) zap.Field {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return zap.Skip()
	}
	return zap.Stringer("remote", p.Addr)
}

// accessLog records every unary call with the same keys the HTTP access log uses.
func accessLog(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		began := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)
		log.Log(callLevel(code), "grpc",
			zap.String("route", info.FullMethod),
			zap.Stringer("status", code),
			zap.Duration("dur", time.Since(began)),
			remoteField(ctx),
		)
		return resp, err
	}
}

// shieldPanics answers codes.Internal when a handler panics.
func shieldPanics(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error("panic",
				zap.String("route", info.FullMethod),
				zap.Any("reason", r),
				zap.ByteString("stack", debug.Stack()),
			)
			resp, err = nil, status.Errorf(codes.Internal, "%s failed", info.FullMethod)
		}()
		return next(ctx, req)
	}
}
