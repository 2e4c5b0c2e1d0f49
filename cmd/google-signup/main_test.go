package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brizzai/google-signup/internal/audit"
	"github.com/brizzai/google-signup/internal/config"
	"github.com/brizzai/google-signup/internal/server"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second},
		Logging: config.LoggingConfig{Level: "info", Format: "console"},
		OAuth: config.OAuthConfig{
			IssuerURL:      config.GoogleIssuer,
			ClientID:       "id",
			ClientSecret:   "secret",
			Scopes:         []string{"openid", "email", "profile"},
			RequestTimeout: time.Second,
			StateTTL:       time.Minute,
		},
		Session: config.SessionConfig{SecretKey: "key"},
	}
}

func TestAppGraph(t *testing.T) {
	var srv *server.Server
	err := fx.ValidateApp(
		appModules(testConfig()),
		fx.NopLogger,
		fx.Populate(&srv),
	)
	require.NoError(t, err)
}

func TestAppGraph_Builds(t *testing.T) {
	cfg := testConfig()
	cfg.OAuth.EnforceState = true

	var srv *server.Server
	app := fx.New(
		appModules(cfg),
		fx.NopLogger,
		fx.Populate(&srv),
	)
	require.NoError(t, app.Err())
	assert.NotNil(t, srv)
	assert.NotNil(t, srv.Handler())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Contains(t, out.String(), "google-signup version")
}

// runCLI executes the root command with a throwaway config file and env file
// and returns what it printed.
func runCLI(t *testing.T, configYAML string, args ...string) (string, error) {
	t.Helper()
	pterm.DisableStyling()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configYAML), 0o600))

	t.Setenv("GOOGLE_CLIENT_ID", "cli-client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "cli-client-secret")
	t.Setenv("SECRET_KEY", "cli-session-key")
	t.Setenv("GOOGLE_SIGNUP_AUDIT_ENABLED", "")
	t.Setenv("GOOGLE_SIGNUP_AUDIT_PATH", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append(args, "--config", cfgPath, "--env-file", filepath.Join(dir, "missing.env")))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCommand_RedactsSecrets(t *testing.T) {
	out, err := runCLI(t, "server:\n  port: 8080\n", "config")
	require.NoError(t, err)

	assert.Contains(t, out, "cli-client-id")
	assert.Contains(t, out, "8080")
	assert.Contains(t, out, "[REDACTED]")
	assert.NotContains(t, out, "cli-client-secret")
	assert.NotContains(t, out, "cli-session-key")
}

func TestAuditCommand_Disabled(t *testing.T) {
	_, err := runCLI(t, "audit:\n  enabled: false\n", "audit", "--limit", "20")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestAuditCommand_Empty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	out, err := runCLI(t, "audit:\n  enabled: true\n  path: "+dbPath+"\n", "audit", "--limit", "20")
	require.NoError(t, err)
	assert.Contains(t, out, "No login attempts recorded yet")
}

func TestAuditCommand_Limit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	rec, err := audit.NewSQLiteRecorder(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, rec.Record(ctx, audit.Event{RequestID: "req-one", Step: audit.StepLogin, Outcome: audit.OutcomeRedirected}))
	require.NoError(t, rec.Record(ctx, audit.Event{RequestID: "req-two", Step: audit.StepCallback, Outcome: audit.OutcomeFailed, ErrorKind: "token_exchange"}))
	require.NoError(t, rec.Record(ctx, audit.Event{RequestID: "req-three", Step: audit.StepCallback, Outcome: audit.OutcomeAccepted}))
	require.NoError(t, rec.Close())

	out, err := runCLI(t, "audit:\n  enabled: true\n  path: "+dbPath+"\n", "audit", "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "REQUEST ID")
	assert.Contains(t, out, "req-three")
	assert.Contains(t, out, "req-two")
	assert.Contains(t, out, "token_exchange")
	assert.NotContains(t, out, "req-one")
}
