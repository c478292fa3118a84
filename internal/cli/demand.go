package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/imovlocal/backend/pkg/client"
)

func newDemandCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "demand",
		Aliases: []string{"demands", "opportunity"},
		Short:   "Work the opportunity board",
	}

	cmd.AddCommand(newDemandListCmd())
	cmd.AddCommand(newDemandGetCmd())
	cmd.AddCommand(newDemandCreateCmd())
	cmd.AddCommand(newDemandProposalsCmd())
	cmd.AddCommand(newDemandProposeCmd())
	cmd.AddCommand(newProposalDecisionCmd("accept", "Accept a proposal on one of your demands"))
	cmd.AddCommand(newProposalDecisionCmd("reject", "Reject a proposal on one of your demands"))
	cmd.AddCommand(newDemandStatsCmd())

	return cmd
}

func newDemandListCmd() *cobra.Command {
	var (
		status, propertyType, neighborhood string
		priceMin, priceMax                 float64
		mine                               bool
		skip, limit                        int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List demands on the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var (
				demands []client.Demand
				err     error
			)
			if mine {
				demands, err = apiClient.Demands().Mine(ctx)
			} else {
				opts := &client.DemandListOptions{
					Status:       status,
					PropertyType: propertyType,
					Neighborhood: neighborhood,
					Skip:         skip,
					Limit:        limit,
				}
				if cmd.Flags().Changed("price-min") {
					opts.PriceMin = &priceMin
				}
				if cmd.Flags().Changed("price-max") {
					opts.PriceMax = &priceMax
				}
				demands, err = apiClient.Demands().List(ctx, opts)
			}
			if err != nil {
				return fmt.Errorf("failed to list demands: %w", err)
			}

			return printOutput(demands, func() {
				if len(demands) == 0 {
					fmt.Fprintln(stdout, "No demands found")
					return
				}
				table := NewTable("ID", "TYPE", "CITY", "NEIGHBORHOODS", "PRICE RANGE", "COMMISSION", "STATUS", "PROPOSALS", "CREATOR")
				for _, d := range demands {
					table.AddRow(
						d.ID,
						d.PropertyType,
						d.City,
						truncate(strings.Join(d.Neighborhoods, ", "), 30),
						formatPrice(d.PriceMin)+" - "+formatPrice(d.PriceMax),
						strconv.FormatFloat(d.Commission, 'f', -1, 64)+"%",
						formatStatus(d.Status),
						strconv.Itoa(d.ProposalCount),
						d.CreatorName,
					)
				}
				table.Render()
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (active, in_negotiation, closed, cancelled)")
	cmd.Flags().StringVar(&propertyType, "type", "", "filter by property type")
	cmd.Flags().StringVar(&neighborhood, "neighborhood", "", "filter by neighborhood")
	cmd.Flags().Float64Var(&priceMin, "price-min", 0, "keep demands whose lower bound is at most this value")
	cmd.Flags().Float64Var(&priceMax, "price-max", 0, "keep demands whose upper bound is at least this value")
	cmd.Flags().BoolVar(&mine, "mine", false, "list only your own demands")
	cmd.Flags().IntVar(&skip, "skip", 0, "number of demands to skip")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of demands")

	return cmd
}

func newDemandGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show demand details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := apiClient.Demands().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get demand: %w", err)
			}

			return printOutput(d, func() {
				fmt.Fprintf(stdout, "ID:            %s\n", d.ID)
				fmt.Fprintf(stdout, "Status:        %s\n", formatStatus(d.Status))
				fmt.Fprintf(stdout, "Property type: %s\n", d.PropertyType)
				fmt.Fprintf(stdout, "Location:      %s\n", strings.Trim(d.City+" / "+d.State, " /"))
				fmt.Fprintf(stdout, "Neighborhoods: %s\n", strings.Join(d.Neighborhoods, ", "))
				fmt.Fprintf(stdout, "Price range:   %s - %s\n", formatPrice(d.PriceMin), formatPrice(d.PriceMax))
				if d.MinBedrooms != nil {
					fmt.Fprintf(stdout, "Bedrooms:      %d+\n", *d.MinBedrooms)
				}
				if d.MinGarage != nil {
					fmt.Fprintf(stdout, "Garage:        %d+\n", *d.MinGarage)
				}
				if d.MinArea != nil {
					fmt.Fprintf(stdout, "Area:          %.0f m²+\n", *d.MinArea)
				}
				if d.MustHave != "" {
					fmt.Fprintf(stdout, "Must have:     %s\n", d.MustHave)
				}
				fmt.Fprintf(stdout, "Commission:    %s%%\n", strconv.FormatFloat(d.Commission, 'f', -1, 64))
				fmt.Fprintf(stdout, "Creator:       %s (%s)\n", d.CreatorName, d.CreatorPhone)
				if d.CreatorCreci != "" {
					fmt.Fprintf(stdout, "CRECI:         %s\n", d.CreatorCreci)
				}
				fmt.Fprintf(stdout, "Proposals:     %d\n", d.ProposalCount)
				fmt.Fprintf(stdout, "Views:         %d\n", d.ViewCount)
				fmt.Fprintf(stdout, "Created:       %s\n", formatTime(d.CreatedAt))
			})
		},
	}
}

func newDemandCreateCmd() *cobra.Command {
	var (
		req              client.CreateDemandRequest
		bedrooms, garage int
		area             float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a demand to the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("bedrooms") {
				req.MinBedrooms = &bedrooms
			}
			if cmd.Flags().Changed("garage") {
				req.MinGarage = &garage
			}
			if cmd.Flags().Changed("area") {
				req.MinArea = &area
			}

			d, err := apiClient.Demands().Create(context.Background(), req)
			if err != nil {
				return fmt.Errorf("failed to create demand: %w", err)
			}
			return printMessage(d, "Demand %s created", d.ID)
		},
	}

	cmd.Flags().StringVar(&req.PropertyType, "type", "", "property type (e.g. Apartamento, Casa)")
	cmd.Flags().StringVar(&req.State, "state", "", "state")
	cmd.Flags().StringVar(&req.City, "city", "", "city")
	cmd.Flags().StringSliceVar(&req.Neighborhoods, "neighborhood", nil, "acceptable neighborhood (repeatable or comma separated)")
	cmd.Flags().Float64Var(&req.PriceMin, "price-min", 0, "minimum price")
	cmd.Flags().Float64Var(&req.PriceMax, "price-max", 0, "maximum price")
	cmd.Flags().IntVar(&bedrooms, "bedrooms", 0, "minimum bedrooms")
	cmd.Flags().IntVar(&garage, "garage", 0, "minimum garage spots")
	cmd.Flags().Float64Var(&area, "area", 0, "minimum area in m²")
	cmd.Flags().StringVar(&req.MustHave, "must-have", "", "free-text requirements")
	cmd.Flags().Float64Var(&req.Commission, "commission", 0, "commission split offered, in percent")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("neighborhood")
	_ = cmd.MarkFlagRequired("price-max")

	return cmd
}

func newDemandProposalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposals <demand-id>",
		Short: "List proposals received on one of your demands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposals, err := apiClient.Demands().Proposals(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list proposals: %w", err)
			}

			return printOutput(proposals, func() {
				if len(proposals) == 0 {
					fmt.Fprintln(stdout, "No proposals yet")
					return
				}
				table := NewTable("ID", "OFFERER", "PHONE", "PROPERTY", "MESSAGE", "STATUS", "CREATED")
				for _, p := range proposals {
					property := "-"
					if p.PropertyTitle != "" {
						property = truncate(p.PropertyTitle, 30)
					}
					table.AddRow(
						p.ID,
						p.OffererName,
						p.OffererPhone,
						property,
						truncate(p.Message, 40),
						formatStatus(p.Status),
						formatTime(p.CreatedAt),
					)
				}
				table.Render()
			})
		},
	}
}

func newDemandProposeCmd() *cobra.Command {
	var req client.CreateProposalRequest

	cmd := &cobra.Command{
		Use:   "propose <demand-id>",
		Short: "Answer a demand with a proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Demands().Propose(context.Background(), args[0], req)
			if err != nil {
				return fmt.Errorf("failed to send proposal: %w", err)
			}
			return printMessage(p, "Proposal %s sent", p.ID)
		},
	}

	cmd.Flags().StringVarP(&req.Message, "message", "m", "", "message to the demand creator")
	cmd.Flags().StringVar(&req.PropertyID, "property", "", "ID of one of your listings to offer")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newProposalDecisionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <proposal-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var (
				res *client.ProposalAction
				err error
			)
			if action == "accept" {
				res, err = apiClient.Demands().Accept(ctx, args[0])
			} else {
				res, err = apiClient.Demands().Reject(ctx, args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to %s proposal: %w", action, err)
			}
			return printMessage(res, "%s", res.Message)
		},
	}
}

func newDemandStatsCmd() *cobra.Command {
	var board bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show your opportunity board summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if board {
				report, err := apiClient.Demands().Report(ctx)
				if err != nil {
					return fmt.Errorf("failed to get board report: %w", err)
				}
				return printOutput(report, func() {
					fmt.Fprintf(stdout, "Demands:            %d\n", report.TotalDemands)
					for status, n := range report.DemandsByStatus {
						fmt.Fprintf(stdout, "  %-17s %d\n", status+":", n)
					}
					fmt.Fprintf(stdout, "Proposals:          %d\n", report.TotalProposals)
					fmt.Fprintf(stdout, "Accepted proposals: %d\n", report.AcceptedProposals)
					if len(report.TopCreators) > 0 {
						fmt.Fprintln(stdout)
						table := NewTable("TOP CREATOR", "DEMANDS")
						for _, b := range report.TopCreators {
							table.AddRow(b.Key, strconv.FormatInt(b.Count, 10))
						}
						table.Render()
					}
				})
			}

			stats, err := apiClient.Demands().Stats(ctx)
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}
			return printOutput(stats, func() {
				fmt.Fprintf(stdout, "My demands:          %d (%d active)\n", stats.MyDemands, stats.MyActiveDemands)
				fmt.Fprintf(stdout, "Received proposals:  %d\n", stats.ReceivedProposals)
				fmt.Fprintf(stdout, "My proposals:        %d (%d accepted)\n", stats.MyProposals, stats.MyAccepted)
			})
		},
	}

	cmd.Flags().BoolVar(&board, "board", false, "show the whole board report (admin only)")

	return cmd
}
