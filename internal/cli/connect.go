package cli

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Open an interactive session with the command service",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := net.Dial("tcp", flagAddr)
			if err != nil {
				return fmt.Errorf("connect %s: %w", flagAddr, err)
			}
			defer conn.Close()

			fmt.Printf("Connected to %s\n", flagAddr)
			return runSession(conn, os.Stdin, os.Stdout)
		},
	}
}

// runSession pumps stdin lines to the server and streams everything the
// server sends back. Program output arrives tick by tick while the task
// runs, so reading happens on its own goroutine rather than in lockstep
// with the prompt.
func runSession(conn net.Conn, in io.Reader, out io.Writer) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		io.Copy(out, conn)
	}()

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "$ ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(out, "$ ")
			continue
		}
		if _, err := fmt.Fprintln(conn, line); err != nil {
			return fmt.Errorf("send command: %w", err)
		}
		if line == "exit" {
			break
		}
		fmt.Fprint(out, "$ ")
	}

	<-done
	fmt.Fprintln(out, "Session closed.")
	return scanner.Err()
}
