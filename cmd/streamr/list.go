package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sam-thetutor/streamr/accrual"
	"github.com/sam-thetutor/streamr/numeric"
	"github.com/sam-thetutor/streamr/types"
)

var listRole string

var listCmd = &cobra.Command{
	Use:   "list (streams|subscriptions) <address>",
	Short: "List a user's streams or subscriptions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[1]
		asOf := engine.AsOf(cmd.Context())

		switch args[0] {
		case "streams":
			role := types.Role(listRole)
			if role == "" {
				role = types.RoleSender
			}
			if role != types.RoleSender && role != types.RoleRecipient {
				return fmt.Errorf("role must be sender or recipient")
			}
			streams, err := engine.UserStreams(cmd.Context(), address, role)
			if err != nil {
				return err
			}
			for _, st := range streams {
				p := accrual.ProjectStream(st, asOf)
				fmt.Printf("#%-6d %-8s %s streamed (%s)  remaining %s\n",
					st.ID, activeLabel(st.IsActive),
					numeric.FormatAmount(p.TotalStreamed), numeric.FormatProgress(p.ProgressBps),
					numeric.FormatAmount(p.RemainingDeposit))
			}
		case "subscriptions":
			role := types.Role(listRole)
			if role == "" {
				role = types.RoleSubscriber
			}
			if role != types.RoleSubscriber && role != types.RoleReceiver {
				return fmt.Errorf("role must be subscriber or receiver")
			}
			subs, err := engine.UserSubscriptions(cmd.Context(), address, role)
			if err != nil {
				return err
			}
			for _, sub := range subs {
				p := accrual.ProjectSubscription(sub, asOf)
				due := "-"
				if p.IsDue {
					due = fmt.Sprintf("due x%d", p.DueIntervals)
				}
				fmt.Printf("#%-6d %-8s %s / %s  balance %s  %s\n",
					sub.ID, activeLabel(sub.Active),
					numeric.FormatAmount(sub.AmountPerInterval), numeric.FormatDuration(sub.IntervalSeconds),
					numeric.FormatAmount(sub.Balance), due)
			}
		default:
			return fmt.Errorf("unknown collection %q, want streams or subscriptions", args[0])
		}
		return nil
	},
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func init() {
	listCmd.Flags().StringVar(&listRole, "role", "", "Role filter: sender|recipient for streams, subscriber|receiver for subscriptions")
}
