package cmd

import (
	"context"
	"net"
	"time"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/andresmejia3/formcheck/internal/logger"
	"github.com/andresmejia3/formcheck/internal/publish"
	"github.com/andresmejia3/formcheck/internal/server"
	"github.com/spf13/cobra"
)

var serveHost string

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the live feedback HTTP/WebSocket server",
	Annotations: map[string]string{dbAnnotation: dbOptional},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Address to bind")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	log := appLog()

	var pub publish.Publisher = publish.Nop{}
	if Cfg.RedisAddress != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		r, err := publish.NewRedis(pingCtx, publish.RedisOptions{
			Address:  Cfg.RedisAddress,
			Password: Cfg.RedisPassword,
			DB:       Cfg.RedisDB,
		}, log)
		cancel()
		if err != nil {
			log.WithField("error", err.Error()).Warn("redis unavailable, live events will not be published")
		} else {
			pub = r
		}
	}
	defer pub.Close()

	opts := server.Options{
		Log:        log,
		Registry:   form.DefaultRegistry(),
		Publisher:  pub,
		LiveMaxFPS: Cfg.LiveMaxFPS,
	}
	// Leave Store as a nil interface when there is no connection
	if DB != nil {
		opts.Store = DB
	}
	srv := server.New(opts)

	addr := net.JoinHostPort(serveHost, Cfg.AppPort)
	logger.Info(logger.Fields{"addr": addr, "max_fps": Cfg.LiveMaxFPS, "store": DB != nil}, "live feedback server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down live feedback server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
