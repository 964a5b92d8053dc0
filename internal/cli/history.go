package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit    int
		clientNo int
		taskType string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished task executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/history/?limit=%d", limit)
			if clientNo > 0 {
				path += fmt.Sprintf("&client=%d", clientNo)
			}
			if taskType != "" {
				path += "&type=" + taskType
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}

			var recs []struct {
				ID         string     `json:"id"`
				ClientNum  int        `json:"client_num"`
				Command    string     `json:"command"`
				Type       string     `json:"type"`
				TotalBurst int        `json:"total_burst"`
				Rounds     int        `json:"rounds"`
				BytesSent  uint64     `json:"bytes_sent"`
				EndedAt    *time.Time `json:"ended_at"`
			}
			if err := json.Unmarshal(resp.Data, &recs); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(recs) == 0 {
				fmt.Println("No executions recorded.")
				return nil
			}

			fmt.Printf("%-6s  %-8s  %-6s  %-6s  %-10s  %-14s  %s\n",
				"CLIENT", "TYPE", "BURST", "ROUNDS", "SENT", "ENDED", "COMMAND")
			for _, r := range recs {
				ended := "-"
				if r.EndedAt != nil {
					ended = humanize.Time(*r.EndedAt)
				}
				fmt.Printf("%-6d  %-8s  %-6d  %-6d  %-10s  %-14s  %s\n",
					r.ClientNum, r.Type, r.TotalBurst, r.Rounds,
					humanize.Bytes(r.BytesSent), ended, r.Command)
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(recs), resp.Pagination.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to list")
	cmd.Flags().IntVar(&clientNo, "client", 0, "Filter by client number")
	cmd.Flags().StringVar(&taskType, "type", "", "Filter by task type (shell, program)")
	return cmd
}
