package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	grpchandler "github.com/ogurasousui/staff-directory/internal/adapters/grpc/handler"
	httphandler "github.com/ogurasousui/staff-directory/internal/adapters/http/handler"
	"github.com/ogurasousui/staff-directory/internal/platform/auth"
	"github.com/ogurasousui/staff-directory/internal/platform/metrics"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

// Options はサーバー構築時の依存です。
type Options struct {
	ListenAddr string
	HTTPAddr   string
	// MetricsAddr が指定されていれば /metrics のみを公開する HTTP サーバーを別に起動します。
	MetricsAddr string
	Verifier    *auth.Verifier
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Server は gRPC サーバーと任意の HTTP サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr    string
	grpcServer    *grpc.Server
	httpServer    *http.Server
	metricsServer *http.Server
	logger        *slog.Logger
}

// New は DirectoryService を登録した gRPC サーバーと、HTTPAddr が指定されていれば JSON API を構築します。
func New(opts Options, grpcSvc grpchandler.DirectoryServiceServer, httpSvc *httphandler.DirectoryHTTPHandler, grpcOpts ...grpc.ServerOption) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	grpcOpts = append(grpcOpts, grpc.ChainUnaryInterceptor(
		RecoveryUnaryInterceptor(logger),
		LoggingUnaryInterceptor(logger),
		MetricsUnaryInterceptor(opts.Metrics),
		auth.UnaryServerInterceptor(opts.Verifier),
	))
	srv := grpc.NewServer(grpcOpts...)
	grpchandler.RegisterDirectoryServiceServer(srv, grpcSvc)

	s := &Server{
		listenAddr: opts.ListenAddr,
		grpcServer: srv,
		logger:     logger,
	}

	if opts.HTTPAddr != "" && httpSvc != nil {
		s.httpServer = &http.Server{
			Addr:              opts.HTTPAddr,
			Handler:           NewRouter(httpSvc, opts.Verifier, opts.Metrics, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	if opts.MetricsAddr != "" && opts.Metrics != nil {
		mr := mux.NewRouter()
		mr.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
		s.metricsServer = &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           mr,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return s
}

// NewRouter は JSON API とメトリクスを公開する gorilla/mux のルーターを構築します。
func NewRouter(h *httphandler.DirectoryHTTPHandler, verifier *auth.Verifier, m *metrics.Metrics, logger *slog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware(logger), LoggingMiddleware(logger), MetricsMiddleware(m), auth.Middleware(verifier))
	h.Register(r)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}
	return r
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		s.GracefulStop()
		return nil
	})

	g.Go(func() error {
		s.logger.Info("gRPC server listening", slog.String("addr", s.listenAddr))
		if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}
		return nil
	})

	for _, hs := range s.httpServers() {
		g.Go(func() error {
			s.logger.Info("HTTP server listening", slog.String("addr", hs.Addr))
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve HTTP %s: %w", hs.Addr, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// GracefulStop はサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, hs := range s.httpServers() {
		if err := hs.Shutdown(ctx); err != nil {
			s.logger.Warn("HTTP shutdown", slog.String("addr", hs.Addr), slog.Any("err", err))
		}
	}
	s.grpcServer.GracefulStop()
}

func (s *Server) httpServers() []*http.Server {
	var out []*http.Server
	for _, hs := range []*http.Server{s.httpServer, s.metricsServer} {
		if hs != nil {
			out = append(out, hs)
		}
	}
	return out
}
