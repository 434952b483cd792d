package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Options configures Serve. An empty address disables that listener. Without
// Auth only loopback addresses are accepted.
type Options struct {
	GRPCAddr string
	HTTPAddr string
	Auth     *Authenticator
	Logger   *slog.Logger
}

// Serve runs the gRPC and HTTP listeners until ctx is canceled or one of them
// fails, then stops both.
func Serve(ctx context.Context, svc *Service, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.GRPCAddr == "" && opts.HTTPAddr == "" {
		return errors.New("no listen address configured")
	}
	if opts.Auth == nil {
		for _, addr := range []string{opts.GRPCAddr, opts.HTTPAddr} {
			if addr != "" && !isLoopback(addr) {
				return fmt.Errorf("refusing to listen on %s without auth: set auth.jwt_secret or bind a loopback address", addr)
			}
		}
	}

	var glis, hlis net.Listener
	if opts.GRPCAddr != "" {
		l, err := net.Listen("tcp", opts.GRPCAddr)
		if err != nil {
			return fmt.Errorf("gRPC listen error: %w", err)
		}
		glis = l
	}
	if opts.HTTPAddr != "" {
		l, err := net.Listen("tcp", opts.HTTPAddr)
		if err != nil {
			if glis != nil {
				glis.Close()
			}
			return fmt.Errorf("HTTP listen error: %w", err)
		}
		hlis = l
	}

	g, gctx := errgroup.WithContext(ctx)
	var (
		gs *grpc.Server
		hs *http.Server
	)
	if glis != nil {
		gs = NewGRPCServer(svc, opts.Auth)
		logger.Info("gRPC listening", "addr", glis.Addr().String())
		g.Go(func() error {
			if err := gs.Serve(glis); err != nil {
				return fmt.Errorf("gRPC serve error: %w", err)
			}
			return nil
		})
	}
	if hlis != nil {
		hs = &http.Server{Handler: NewHTTPHandler(svc, opts.Auth), ReadHeaderTimeout: 10 * time.Second}
		logger.Info("HTTP listening", "addr", hlis.Addr().String())
		g.Go(func() error {
			if err := hs.Serve(hlis); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP serve error: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		if gs != nil {
			gs.GracefulStop()
		}
		if hs != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = hs.Shutdown(shutdownCtx)
		}
		return nil
	})

	err := g.Wait()
	logger.Info("server stopped")
	return err
}

// isLoopback reports whether addr names a loopback host. An empty host binds
// every interface and is not loopback.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
