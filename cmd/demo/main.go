// Command demo is a standalone workload for exercising the scheduler by
// hand: it runs for N seconds and prints one progress line per second,
// in the same format the service streams for simulated program tasks.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s N\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "  N = number of seconds to run")
		os.Exit(1)
	}

	n, err := strconv.Atoi(os.Args[1])
	if err != nil || n <= 0 {
		fmt.Fprintln(os.Stderr, "Error: N must be a positive integer")
		os.Exit(1)
	}

	for i := 1; i <= n; i++ {
		fmt.Printf("Demo %d/%d\n", i, n)
		time.Sleep(time.Second)
	}
}
