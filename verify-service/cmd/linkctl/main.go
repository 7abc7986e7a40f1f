// Command linkctl curates the loan link allow/deny list and runs ad hoc checks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fincoach/fincoach/shared/config"
	"github.com/fincoach/fincoach/shared/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(config.NewViper("linkctl", "8086")).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "linkctl",
		Short:         "Curate the loan link allow/deny list",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			l := logger.New("linkctl")
			logger.SetGlobal(l)
			cmd.SetContext(logger.WithContext(cmd.Context(), l))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("database-url", "", "Postgres connection string (env DATABASE_URL)")
	flags.String("redis-addr", "", "Redis address used for cache invalidation (env REDIS_ADDR)")
	flags.String("gemini-api-key", "", "Gemini API key for Tier 2 checks (env GEMINI_API_KEY)")
	flags.Duration("ai-timeout", 0, "Timeout for the Tier 2 model call (env AI_TIMEOUT)")
	for flag, key := range map[string]string{
		"database-url":   "database_url",
		"redis-addr":     "redis_addr",
		"gemini-api-key": "gemini_api_key",
		"ai-timeout":     "ai_timeout",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	app := &app{v: v}
	root.AddCommand(app.listCmd(), app.addCmd(), app.removeCmd(), app.checkCmd())
	return root
}
