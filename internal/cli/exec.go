package cli

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newExecCmd() *cobra.Command {
	var idle time.Duration

	cmd := &cobra.Command{
		Use:   "exec <command...>",
		Short: "Submit one command and stream its output",
		Long: "exec sends a single command to the command service and prints everything " +
			"the server streams back, until the output has been idle for the given duration.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			command := strings.Join(args, " ")

			conn, err := net.Dial("tcp", flagAddr)
			if err != nil {
				return fmt.Errorf("connect %s: %w", flagAddr, err)
			}
			defer conn.Close()

			if _, err := fmt.Fprintln(conn, command); err != nil {
				return fmt.Errorf("send command: %w", err)
			}

			// A program task streams one line per simulated second, so
			// keep extending the deadline while output is arriving.
			buf := make([]byte, 4096)
			for {
				conn.SetReadDeadline(time.Now().Add(idle))
				n, err := conn.Read(buf)
				if n > 0 {
					os.Stdout.Write(buf[:n])
				}
				if err != nil {
					var nerr net.Error
					if errors.As(err, &nerr) && nerr.Timeout() {
						return nil
					}
					return nil // connection closed
				}
			}
		},
	}

	cmd.Flags().DurationVar(&idle, "idle", 3*time.Second, "Stop after no output for this long")
	return cmd
}
