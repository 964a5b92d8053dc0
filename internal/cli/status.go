package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler health and the waiting queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/health")
			if err != nil {
				return fmt.Errorf("get health: %w", err)
			}
			var health struct {
				Status         string `json:"status"`
				Uptime         string `json:"uptime"`
				QueuedTasks    int    `json:"queued_tasks"`
				RunningTaskID  int    `json:"running_task_id"`
				ElapsedSeconds int    `json:"elapsed_seconds"`
				Clients        int    `json:"clients"`
			}
			if err := json.Unmarshal(resp.Data, &health); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Status:   %s (up %s)\n", health.Status, health.Uptime)
			fmt.Printf("Clients:  %d connected\n", health.Clients)
			fmt.Printf("Queue:    %d waiting, running task %d, elapsed %ds\n",
				health.QueuedTasks, health.RunningTaskID, health.ElapsedSeconds)

			resp, err = client.Get("/api/v1/queue")
			if err != nil {
				return fmt.Errorf("get queue: %w", err)
			}
			var snap struct {
				Tasks []struct {
					ID             int       `json:"id"`
					Command        string    `json:"command"`
					Type           string    `json:"type"`
					RemainingBurst int       `json:"remaining_burst"`
					RoundNumber    int       `json:"round_number"`
					ArrivalTime    time.Time `json:"arrival_time"`
				} `json:"tasks"`
				LastSelectedID int `json:"last_selected_id"`
			}
			if err := json.Unmarshal(resp.Data, &snap); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(snap.Tasks) == 0 {
				fmt.Println("\nWaiting queue is empty.")
				return nil
			}

			fmt.Printf("\n%-4s  %-8s  %-10s  %-6s  %-12s  %s\n", "ID", "TYPE", "REMAINING", "ROUND", "ARRIVED", "COMMAND")
			for _, t := range snap.Tasks {
				fmt.Printf("%-4d  %-8s  %-10d  %-6d  %-12s  %s\n",
					t.ID, t.Type, t.RemainingBurst, t.RoundNumber,
					humanize.Time(t.ArrivalTime), t.Command)
			}
			fmt.Printf("\nLast selected task: %d\n", snap.LastSelectedID)
			return nil
		},
	}
}
