// Command crmctl is a terminal front end for the lead API: a lead roster, the
// pending follow-up queue and the analytics summary.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/phbpx/minicrm/client"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultAPIURL = "http://localhost:5000"

// app carries the state shared by every command.
type app struct {
	apiURL  string
	timeout time.Duration
	jsonOut bool
	log     *zap.SugaredLogger
}

func main() {
	log, err := newLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := newRootCmd(log).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(log *zap.SugaredLogger) *cobra.Command {
	a := &app{log: log}

	apiURL := os.Getenv("CRM_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	root := &cobra.Command{
		Use:           "crmctl",
		Short:         "Manage leads, follow-ups and conversion analytics",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api", apiURL, "lead API base URL (env CRM_API_URL)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print JSON instead of tables")

	root.AddCommand(
		a.newLeadsCmd(),
		a.newFollowUpsCmd(),
		a.newAnalyticsCmd(),
	)

	return root
}

func (a *app) client() *client.Client {
	return client.New(a.apiURL)
}

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, a.timeout)
}

// fail logs err on the diagnostic channel and returns it to cobra.
func (a *app) fail(op string, err error) error {
	a.log.Errorw(op, "api", a.apiURL, "error", err)
	return fmt.Errorf("%s: %w", op, err)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLog() (*zap.SugaredLogger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	config.DisableStacktrace = true

	log, err := config.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
