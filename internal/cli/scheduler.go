package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newSchedulerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Control the plan expiration scheduler",
	}

	cmd.AddCommand(newSchedulerRunCmd())

	return cmd
}

func newSchedulerRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one plan expiration sweep now (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.RunScheduler(context.Background())
			if err != nil {
				return fmt.Errorf("failed to run scheduler: %w", err)
			}

			return printOutput(res, func() {
				fmt.Fprintf(stdout, "Expired plans:      %d\n", res.Expired)
				fmt.Fprintf(stdout, "Expiring soon:      %d\n", res.ExpiringSoon)
				fmt.Fprintf(stdout, "Notifications sent: %d\n", res.NotificationsSent)
				if res.Errors > 0 {
					fmt.Fprintf(stdout, "Errors:             %d\n", res.Errors)
				}
				fmt.Fprintf(stdout, "Took:               %s\n", res.Duration)
			})
		},
	}
}
