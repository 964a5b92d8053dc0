package cli

import (
	"log/slog"
	"os"

	"github.com/me/remsh/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagAddr      string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default admin API URL, checking the
// REMSH_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("REMSH_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8081"
}

// defaultAddr returns the default TCP command-service address, checking
// the REMSH_ADDR env var first.
func defaultAddr() string {
	if s := os.Getenv("REMSH_ADDR"); s != "" {
		return s
	}
	return "localhost:8080"
}

// NewRootCmd creates the root cobra command for the remsh CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "remsh",
		Short: "remsh - remote command execution with a preemptive scheduler",
		Long:  "remsh connects to a remsh server, submits shell and program tasks, and inspects the scheduler.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "Admin API URL (or REMSH_SERVER env)")
	root.PersistentFlags().StringVar(&flagAddr, "addr", defaultAddr(), "Command service TCP address (or REMSH_ADDR env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newConnectCmd(),
		newExecCmd(),
		newStatusCmd(),
		newHistoryCmd(),
	)

	return root
}
