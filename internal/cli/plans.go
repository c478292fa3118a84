package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newPlansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plans",
		Aliases: []string{"plan"},
		Short:   "Browse subscription plans",
	}

	cmd.AddCommand(newPlansListCmd())

	return cmd
}

func newPlansListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := apiClient.Plans().List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			return printOutput(plans, func() {
				table := NewTable("ID", "NAME", "FOR", "PRICE", "DAYS", "LISTINGS", "PHOTOS", "FEATURES")
				for _, p := range plans {
					table.AddRow(
						p.ID,
						p.Name,
						p.UserType,
						formatMoney(p.Price),
						strconv.Itoa(p.DurationDays),
						strconv.Itoa(p.MaxListings),
						strconv.Itoa(p.MaxPhotos),
						truncate(strings.Join(p.Features, "; "), 60),
					)
				}
				table.Render()
			})
		},
	}
}
