package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benvon/smart-todo-client/internal/apiclient"
	"github.com/benvon/smart-todo-client/internal/config"
	"github.com/benvon/smart-todo-client/internal/logger"
	"github.com/benvon/smart-todo-client/internal/session"
	"github.com/benvon/smart-todo-client/internal/telemetry"
)

// app holds what every command needs once flags are parsed
type app struct {
	apiURL string
	debug  bool
	output string

	cfg      *config.Config
	logger   *zap.Logger
	session  *session.Session
	client   *apiclient.Client
	closeFns []func()
}

// Execute runs the todo command line with args
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{}
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Smart Todo command line client",
		Long:          "Manage your todos and talk to the todo assistant from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (default from TODO_API_BASE_URL)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", OutputTable, "Output format: table, json or yaml")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newRemoveCmd(a),
		newToggleCmd(a),
		newChatCmd(a),
		newServeDevCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context) error {
	if err := validOutput(a.output); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.apiURL != "" {
		cfg.APIBaseURL = a.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	cfg.DebugMode = cfg.DebugMode || a.debug
	a.cfg = cfg

	a.logger, err = logger.NewCLILogger(cfg.DebugMode)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.closeFns = append(a.closeFns, func() { _ = logger.Sync(a.logger) })

	_, shutdownTracing := telemetry.Setup(ctx, cfg.OTELEnabled, cfg.OTELEndpoint, telemetry.CLIServiceName, a.logger)
	a.closeFns = append(a.closeFns, shutdownTracing)

	a.session, err = session.Open(ctx, cfg, a.logger)
	if err != nil {
		return err
	}
	a.closeFns = append(a.closeFns, func() {
		if err := a.session.Close(); err != nil {
			a.logger.Warn("failed_to_close_token_store", zap.Error(err))
		}
	})

	a.client = apiclient.New(cfg.APIBaseURL, a.session,
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithLogger(a.logger),
	)
	return nil
}

// close releases resources in reverse order of acquisition
func (a *app) close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
	a.closeFns = nil
}

// userError turns a controller failure into the message shown to the user
func userError(userMessage string, err error) error {
	if errors.Is(err, session.ErrIdentityMissing) {
		return errors.New("not logged in: run 'todo login' first")
	}
	if userMessage == "" {
		return err
	}
	return errors.New(userMessage)
}
