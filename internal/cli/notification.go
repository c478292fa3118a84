package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imovlocal/backend/pkg/client"
)

func newNotificationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notification",
		Aliases: []string{"notif", "notifications"},
		Short:   "Read and manage notifications",
	}

	cmd.AddCommand(newNotifListCmd())
	cmd.AddCommand(newNotifCountCmd())
	cmd.AddCommand(newNotifReadCmd())
	cmd.AddCommand(newNotifReadAllCmd())
	cmd.AddCommand(newNotifDeleteCmd())
	cmd.AddCommand(newNotifBroadcastCmd())
	cmd.AddCommand(newNotifStatsCmd())

	return cmd
}

func newNotifListCmd() *cobra.Command {
	var (
		unread bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := apiClient.Notifications().List(context.Background(), unread, limit)
			if err != nil {
				return fmt.Errorf("failed to list notifications: %w", err)
			}

			return printOutput(items, func() {
				if len(items) == 0 {
					fmt.Fprintln(stdout, "No notifications")
					return
				}
				table := NewTable("ID", "", "TYPE", "TITLE", "MESSAGE", "CREATED")
				for _, n := range items {
					mark := " "
					if !n.Read {
						mark = "*"
					}
					table.AddRow(n.ID, mark, n.Type, truncate(n.Title, 30), truncate(n.Message, 50), formatTime(n.CreatedAt))
				}
				table.Render()
			})
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of notifications")

	return cmd
}

func newNotifCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Show how many notifications are unread",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := apiClient.Notifications().UnreadCount(context.Background())
			if err != nil {
				return fmt.Errorf("failed to count notifications: %w", err)
			}
			return printMessage(map[string]int64{"count": n}, "%d unread", n)
		},
	}
}

func newNotifReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Notifications().MarkRead(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to mark notification: %w", err)
			}
			return printMessage(map[string]string{"id": args[0]}, "Notification %s marked as read", args[0])
		},
	}
}

func newNotifReadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := apiClient.Notifications().MarkAllRead(context.Background())
			if err != nil {
				return fmt.Errorf("failed to mark notifications: %w", err)
			}
			return printMessage(map[string]int64{"updated": n}, "%d notifications marked as read", n)
		},
	}
}

func newNotifDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := apiClient.Notifications().Delete(context.Background(), args[0]); err != nil {
				return fmt.Errorf("failed to delete notification: %w", err)
			}
			return printMessage(map[string]string{"id": args[0]}, "Notification %s deleted", args[0])
		},
	}
}

func newNotifBroadcastCmd() *cobra.Command {
	var req client.BroadcastRequest

	cmd := &cobra.Command{
		Use:   "broadcast",
		Short: "Send an announcement to users (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := apiClient.Notifications().Broadcast(context.Background(), req)
			if err != nil {
				return fmt.Errorf("failed to broadcast: %w", err)
			}

			return printOutput(res, func() {
				fmt.Fprintf(stdout, "Sent to %d users\n", res.Sent)
				types := make([]string, 0, len(res.ByType))
				for t := range res.ByType {
					types = append(types, t)
				}
				sort.Strings(types)
				for _, t := range types {
					fmt.Fprintf(stdout, "  %-12s %d\n", t+":", res.ByType[t])
				}
			})
		},
	}

	cmd.Flags().StringVarP(&req.Title, "title", "t", "", "announcement title")
	cmd.Flags().StringVarP(&req.Message, "message", "m", "", "announcement body")
	cmd.Flags().StringSliceVar(&req.TargetUserTypes, "to", []string{"all"}, "target user types: all, particular, corretor, imobiliaria")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newNotifStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show broadcast reach (admin only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.Notifications().Stats(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get notification stats: %w", err)
			}

			return printOutput(stats, func() {
				table := NewTable("USER TYPE", "ACTIVE USERS")
				types := make([]string, 0, len(stats.ActiveUsersByType))
				for t := range stats.ActiveUsersByType {
					types = append(types, t)
				}
				sort.Strings(types)
				for _, t := range types {
					table.AddRow(t, strconv.FormatInt(stats.ActiveUsersByType[t], 10))
				}
				table.Render()
				fmt.Fprintf(stdout, "\nActive users: %d\nBroadcasts sent: %d\n", stats.TotalActiveUsers, stats.TotalBroadcasts)
			})
		},
	}
}
