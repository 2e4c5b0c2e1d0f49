package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brizzai/google-signup/internal/audit"
	"github.com/brizzai/google-signup/internal/auth"
	"github.com/brizzai/google-signup/internal/auth/handlers"
	"github.com/brizzai/google-signup/internal/config"
	"github.com/brizzai/google-signup/internal/logger"
	"github.com/brizzai/google-signup/internal/requester"
	"github.com/brizzai/google-signup/internal/server"
	"github.com/brizzai/google-signup/internal/telemetry"
	"github.com/brizzai/google-signup/internal/web"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "google-signup",
	Short: "Sign users in with their Google account",
	Long: `google-signup is a small web front-end that delegates login to Google using
OAuth 2.0 / OpenID Connect and shows the verified account profile.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		pterm.Info.WithWriter(cmd.OutOrStdout()).Println(config.GetVersionInfo())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration with secrets redacted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List the most recent login attempts from the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !cfg.Audit.Enabled {
			return fmt.Errorf("audit trail is disabled, set audit.enabled to true")
		}
		rec, err := audit.NewSQLiteRecorder(cfg.Audit.Path)
		if err != nil {
			return err
		}
		defer rec.Close()

		events, err := rec.Recent(cmd.Context(), auditLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			pterm.Info.WithWriter(cmd.OutOrStdout()).Println("No login attempts recorded yet")
			return nil
		}

		data := pterm.TableData{{"TIME", "REQUEST ID", "STEP", "OUTCOME", "ERROR"}}
		for _, ev := range events {
			data = append(data, []string{
				ev.CreatedAt.Local().Format(time.DateTime),
				ev.RequestID,
				string(ev.Step),
				string(ev.Outcome),
				ev.ErrorKind,
			})
		}
		return pterm.DefaultTable.
			WithHasHeader().
			WithData(data).
			WithWriter(cmd.OutOrStdout()).
			Render()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.RunE = runServe
	config.InitFlags(rootCmd.PersistentFlags())
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Number of events to show")
	rootCmd.AddCommand(serveCmd, versionCmd, configCmd, auditCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.Options{Flags: cmd.Root().PersistentFlags()})
}

// appModules is the dependency graph of the serve command
func appModules(cfg *config.Config) fx.Option {
	return fx.Options(
		config.Module(cfg),
		logger.Module,
		telemetry.Module,
		audit.Module,
		requester.Module,
		auth.Module,
		web.Module,
		handlers.Module,
		server.Module,
	)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var srv *server.Server
	app := fx.New(
		appModules(cfg),
		fx.WithLogger(logger.FxLogger),
		fx.Populate(&srv),
	)
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(cmd.Context(), fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("google-signup starting",
		zap.String("version", config.GetVersion()),
		zap.String("issuer", cfg.OAuth.IssuerURL),
		zap.String("client_id", cfg.OAuth.ClientID),
		zap.Bool("enforce_state", cfg.OAuth.EnforceState),
	)
	serveErr := srv.Start(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+time.Second)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil {
		logger.Warn("Failed to stop cleanly", zap.Error(err))
	}
	return serveErr
}
