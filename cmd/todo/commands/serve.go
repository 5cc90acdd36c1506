package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/devapi"
	"github.com/benvon/smart-todo-client/internal/logger"
)

func newServeDevCmd(a *app) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve-dev",
		Short: "Run the development API server",
		Long: "Runs a local API server with the same routes as the todo backend. " +
			"Data lives in memory unless DEV_DATABASE_URL is set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.DevServer
			if port != "" {
				cfg.Port = port
			}

			serverLogger, err := logger.NewProductionLogger(a.cfg.DebugMode)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync(serverLogger) }()

			srv, err := devapi.New(cmd.Context(), devapi.Options{
				Config:    cfg,
				Logger:    serverLogger,
				Tracing:   a.cfg.OTELEnabled && a.cfg.OTELEndpoint != "",
				DebugMode: a.cfg.DebugMode,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := srv.Close(); err != nil {
					serverLogger.Warn("failed_to_close_server_resources", zap.Error(err))
				}
			}()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://localhost:%s%s\n",
				headerStyle.Render("smart-todo dev API"), cfg.Port, devapi.APIPrefix)
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default from SERVER_PORT)")
	return cmd
}
