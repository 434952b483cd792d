package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/SimonWaldherr/tinyrel/internal/server"
	"github.com/SimonWaldherr/tinyrel/internal/storage"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one database over gRPC and HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.newSession()
			if err != nil {
				return err
			}
			svc := server.NewService(sess, a.logger)

			if sched := a.cfg.Checkpoint.Schedule; sched != "" {
				s, err := storage.NewScheduler(sched, a.cfg.Checkpoint.Dest, svc, a.logger)
				if err != nil {
					return err
				}
				s.Start()
				defer s.Stop()
				a.logger.Info("checkpoints scheduled", "schedule", sched, "dest", a.cfg.Checkpoint.Dest)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Serve(ctx, svc, server.Options{
				GRPCAddr: a.cfg.Server.GRPC,
				HTTPAddr: a.cfg.Server.HTTP,
				Auth:     server.NewAuthenticator(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer),
				Logger:   a.logger,
			})
		},
	}
	f := cmd.Flags()
	f.String("grpc-addr", "", "gRPC listen address (config default \"127.0.0.1:9090\")")
	f.String("http-addr", "", "HTTP listen address (config default \"127.0.0.1:8080\")")
	f.String("jwt-secret", "", "HS256 secret; enables bearer token auth, required for non-loopback addresses")
	f.String("checkpoint", "", "cron schedule for saving the command log, e.g. @every 5m")
	f.String("checkpoint-dest", "", "checkpoint destination: path, file:// or s3:// URL")
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the configured JWT secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			auth := server.NewAuthenticator(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer)
			if auth == nil {
				return errors.New("no JWT secret configured (--jwt-secret or TINYREL_AUTH_JWT_SECRET)")
			}
			tok, err := auth.Issue(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "tinyrel", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().String("jwt-secret", "", "HS256 secret")
	return cmd
}
