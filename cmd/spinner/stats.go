package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show selection analytics for the organization",
	GroupID: "analytics",
}

var statsFairnessCmd = &cobra.Command{
	Use:   "fairness",
	Short: "How evenly picks are spread across participants (0-100)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := spinnerClient.Fairness(cmd.Context(), scopeFlags(cmd))
		if err != nil {
			return fmt.Errorf("fetching fairness: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		printFairness(cmd.OutOrStdout(), r)
		return nil
	},
}

var statsEngagementCmd = &cobra.Command{
	Use:   "engagement",
	Short: "Engagement score over the last 30 days (0-10)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := spinnerClient.Engagement(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching engagement: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		printEngagement(cmd.OutOrStdout(), r)
		return nil
	},
}

var statsPeakCmd = &cobra.Command{
	Use:   "peak",
	Short: "Busiest hour of the day for spins",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := spinnerClient.PeakHours(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching peak hours: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		printPeakHours(cmd.OutOrStdout(), r)
		return nil
	},
}

var statsTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "This week compared with last week",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := spinnerClient.WeeklyTrend(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching weekly trend: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), r)
		}
		printWeeklyTrend(cmd.OutOrStdout(), r)
		return nil
	},
}

var statsDepartmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Per-department selection counts and response times",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		depts, err := spinnerClient.Departments(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching departments: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), depts)
		}
		printDepartments(cmd.OutOrStdout(), depts)
		return nil
	},
}

func init() {
	addScopeFlags(statsFairnessCmd)

	statsCmd.AddCommand(statsFairnessCmd)
	statsCmd.AddCommand(statsEngagementCmd)
	statsCmd.AddCommand(statsPeakCmd)
	statsCmd.AddCommand(statsTrendCmd)
	statsCmd.AddCommand(statsDepartmentsCmd)
}
