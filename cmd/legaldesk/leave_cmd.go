package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/legaldesk/modules/hrm/domain/leave"
)

func newLeaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leave",
		Short: "Leave calculation tools",
	}
	cmd.AddCommand(newLeaveDaysCmd())
	return cmd
}

func newLeaveDaysCmd() *cobra.Command {
	var holidays []string
	cmd := &cobra.Command{
		Use:   "days <start> <end>",
		Short: "Count working days between two YYYY-MM-DD dates, inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := leave.ParseDate(args[0])
			if err != nil {
				return err
			}
			end, err := leave.ParseDate(args[1])
			if err != nil {
				return err
			}
			var off []time.Time
			for _, h := range holidays {
				d, err := leave.ParseDate(h)
				if err != nil {
					return err
				}
				off = append(off, d)
			}
			n, err := leave.WorkingDays(start, end, off)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&holidays, "holiday", nil, "public holiday to exclude (repeatable, YYYY-MM-DD)")
	return cmd
}
