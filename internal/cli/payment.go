package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imovlocal/backend/pkg/client"
)

func newPaymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payment",
		Aliases: []string{"payments", "pay"},
		Short:   "Pay for plans with PIX and review receipts",
	}

	cmd.AddCommand(newPaymentCreateCmd())
	cmd.AddCommand(newPaymentListCmd())
	cmd.AddCommand(newPaymentCancelCmd())
	cmd.AddCommand(newPaymentUploadCmd())
	cmd.AddCommand(newPaymentReviewCmd("approve", true))
	cmd.AddCommand(newPaymentReviewCmd("reject", false))
	cmd.AddCommand(newPaymentStatsCmd())

	return cmd
}

func newPaymentCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <plan-id>",
		Short: "Start a PIX payment for a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := apiClient.Payments().Create(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}

			return printOutput(out, func() {
				fmt.Fprintf(stdout, "Payment:     %s\n", out.Payment.ID)
				fmt.Fprintf(stdout, "Plan:        %s\n", out.Payment.PlanName)
				fmt.Fprintf(stdout, "Amount:      %s\n", formatMoney(out.Payment.Amount))
				fmt.Fprintf(stdout, "PIX key:     %s (%s)\n", out.Pix.Key, out.Pix.KeyType)
				fmt.Fprintf(stdout, "Beneficiary: %s\n", out.Pix.BeneficiaryName)
				fmt.Fprintf(stdout, "Pay before:  %s\n", formatTime(out.ExpiresAt))
				fmt.Fprintf(stdout, "\n%s\n", out.NextStep)
				fmt.Fprintf(stdout, "Then run: imovlocal payment upload %s <receipt-file>\n", out.Payment.ID)
			})
		},
	}
}

func newPaymentListCmd() *cobra.Command {
	var (
		status, userID string
		all            bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var (
				payments []client.Payment
				err      error
			)
			if all {
				payments, err = apiClient.Payments().AdminList(ctx, status, userID)
			} else {
				payments, err = apiClient.Payments().ListMine(ctx, status)
			}
			if err != nil {
				return fmt.Errorf("failed to list payments: %w", err)
			}

			return printOutput(payments, func() {
				if len(payments) == 0 {
					fmt.Fprintln(stdout, "No payments found")
					return
				}
				table := NewTable("ID", "USER", "PLAN", "AMOUNT", "STATUS", "CREATED", "PLAN EXPIRES")
				for _, p := range payments {
					table.AddRow(
						p.ID,
						truncate(p.UserEmail, 30),
						p.PlanID,
						formatMoney(p.Amount),
						formatStatus(p.Status),
						formatTime(p.CreatedAt),
						formatTimePtr(p.PlanExpiresAt),
					)
				}
				table.Render()
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (pending, awaiting_approval, approved, rejected, expired, cancelled)")
	cmd.Flags().BoolVar(&all, "all", false, "list every user's payments (admin only)")
	cmd.Flags().StringVar(&userID, "user", "", "filter by user ID (with --all)")

	return cmd
}

func newPaymentCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <payment-id>",
		Short: "Cancel an open payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Payments().Cancel(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to cancel payment: %w", err)
			}
			return printMessage(p, "Payment %s %s", p.ID, p.Status)
		},
	}
}

func newPaymentUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <payment-id> <receipt-file>",
		Short: "Upload the PIX receipt for a payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open receipt: %w", err)
			}
			defer f.Close()

			p, err := apiClient.Payments().UploadReceipt(context.Background(), args[0], filepath.Base(args[1]), f)
			if err != nil {
				return fmt.Errorf("failed to upload receipt: %w", err)
			}
			return printMessage(p, "Receipt sent, payment %s is %s", p.ID, p.Status)
		},
	}
}

func newPaymentReviewCmd(action string, approve bool) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   action + " <payment-id>",
		Short: "Review a payment receipt (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Payments().Review(context.Background(), args[0], approve, notes)
			if err != nil {
				return fmt.Errorf("failed to %s payment: %w", action, err)
			}

			return printOutput(res, func() {
				fmt.Fprintln(stdout, res.Message)
				if res.PlanExpiresAt != nil {
					fmt.Fprintf(stdout, "Plan active until %s\n", formatTime(*res.PlanExpiresAt))
				}
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "note sent to the payer")

	return cmd
}

func newPaymentStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show payment totals (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			stats, err := apiClient.Payments().Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to get payment stats: %w", err)
			}

			return printOutput(stats, func() {
				table := NewTable("STATUS", "PAYMENTS")
				statuses := make([]string, 0, len(stats.ByStatus))
				for s := range stats.ByStatus {
					statuses = append(statuses, s)
				}
				sort.Strings(statuses)
				for _, s := range statuses {
					table.AddRow(formatStatus(s), strconv.FormatInt(stats.ByStatus[s], 10))
				}
				table.Render()
				fmt.Fprintf(stdout, "\nTotal payments:  %d\n", stats.TotalPayments)
				fmt.Fprintf(stdout, "Total revenue:   %s\n", formatMoney(stats.TotalRevenue))
				fmt.Fprintf(stdout, "Revenue (month): %s\n", formatMoney(stats.MonthlyRevenue))
			})
		},
	}
}
