package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sam-thetutor/streamr/numeric"
)

var showCmd = &cobra.Command{
	Use:   "show (stream|subscription) <id>",
	Short: "Display one entity with its live projection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("id must be a non-negative integer: %w", err)
		}

		switch args[0] {
		case "stream":
			return showStream(cmd, id)
		case "subscription":
			return showSubscription(cmd, id)
		default:
			return fmt.Errorf("unknown entity %q, want stream or subscription", args[0])
		}
	},
}

func showStream(cmd *cobra.Command, id uint64) error {
	st, proj, err := engine.StreamProjection(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("Stream #%d", st.ID)
	if st.Title != "" {
		fmt.Printf("  %q", st.Title)
	}
	fmt.Println()
	fmt.Printf("  sender       %s\n", st.Sender)
	fmt.Printf("  token        %s\n", st.TokenContract)
	fmt.Printf("  deposit      %s\n", numeric.FormatAmount(st.Deposit))
	fmt.Printf("  started      %s\n", numeric.FormatTimestamp(st.StartTime))
	fmt.Printf("  active       %v\n", st.IsActive)
	fmt.Printf("  streamed     %s (%s)\n", numeric.FormatAmount(proj.TotalStreamed), numeric.FormatProgress(proj.ProgressBps))
	fmt.Printf("  remaining    %s\n", numeric.FormatAmount(proj.RemainingDeposit))
	if proj.HasCompletion {
		fmt.Printf("  completes    %s\n", numeric.FormatTimestamp(proj.EstimatedCompletion))
	}
	for _, rp := range proj.Recipients {
		fmt.Printf("  recipient    %s\n", rp.Address)
		fmt.Printf("    rate         %s/s\n", numeric.FormatAmount(rp.Rate))
		fmt.Printf("    withdrawable %s\n", numeric.FormatAmount(rp.Withdrawable))
		fmt.Printf("    withdrawn    %s\n", numeric.FormatAmount(rp.TotalWithdrawn))
	}
	return nil
}

func showSubscription(cmd *cobra.Command, id uint64) error {
	sub, proj, err := engine.SubscriptionProjection(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("Subscription #%d", sub.ID)
	if sub.Title != "" {
		fmt.Printf("  %q", sub.Title)
	}
	fmt.Println()
	fmt.Printf("  subscriber   %s\n", sub.Subscriber)
	fmt.Printf("  receiver     %s\n", sub.Receiver)
	fmt.Printf("  amount       %s every %s\n", numeric.FormatAmount(sub.AmountPerInterval), numeric.FormatDuration(sub.IntervalSeconds))
	fmt.Printf("  balance      %s (covers %d intervals)\n", numeric.FormatAmount(sub.Balance), proj.CoveredIntervals)
	fmt.Printf("  active       %v\n", sub.Active)
	if proj.IsDue {
		fmt.Printf("  due          now, %d interval(s) = %s\n", proj.DueIntervals, numeric.FormatAmount(proj.ProjectedCharge))
	} else {
		fmt.Printf("  next payment %s (in %s)\n", numeric.FormatTimestamp(sub.NextPaymentTime), numeric.FormatDuration(proj.TimeUntilNext))
	}
	return nil
}
