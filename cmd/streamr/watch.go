package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sam-thetutor/streamr/accrual"
	"github.com/sam-thetutor/streamr/numeric"
	"github.com/sam-thetutor/streamr/types"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <address>",
	Short: "Continuously print a user's accruing streams",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address := args[0]
		engine.Watch(address)
		defer engine.Unwatch(address)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()

		for {
			streams, err := engine.UserStreams(cmd.Context(), address, types.RoleRecipient)
			if err != nil {
				return err
			}
			asOf := engine.AsOf(cmd.Context())
			fmt.Printf("-- %s --\n", numeric.FormatTimestamp(asOf))
			for _, st := range streams {
				p := accrual.ProjectStream(st, asOf)
				for _, rp := range p.Recipients {
					if rp.Address != address {
						continue
					}
					fmt.Printf("#%-6d withdrawable %-14s %s\n",
						st.ID, numeric.FormatAmount(rp.Withdrawable), numeric.FormatProgress(p.ProgressBps))
				}
			}

			select {
			case <-stop:
				return nil
			case <-cmd.Context().Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "Redraw interval")
}
