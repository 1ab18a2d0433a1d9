// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"strconv"

	"github.com/ManuGH/bbcd/internal/calendar"
	"github.com/spf13/cobra"
)

func newCalendarCmd(opts *rootOptions) *cobra.Command {
	var ruleFlag string

	maxday := &cobra.Command{
		Use:   "maxday <year> <month>",
		Short: "Print the number of days in a month",
		Long: `Print the number of days in a month under the configured leap-year rule.

--rule overrides the configured rule (gregorian or legacy).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("year %q is not a number", args[0])
			}
			month, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("month %q is not a number", args[1])
			}

			name := ruleFlag
			if name == "" {
				cfg, err := loadConfig(opts)
				if err != nil {
					return err
				}
				name = cfg.Calendar.LeapRule
			}
			rule, err := calendar.ParseLeapRule(name)
			if err != nil {
				return err
			}

			days, err := calendar.MaxDay(year, month, rule)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), days)
			return err
		},
	}
	maxday.Flags().StringVar(&ruleFlag, "rule", "", "leap-year rule (gregorian|legacy)")

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Date helpers used by clip validation",
	}
	cmd.AddCommand(maxday)
	return cmd
}
