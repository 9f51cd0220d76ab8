package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/youngmentor/Name-Spinner-Backend/internal/client"
)

var selectionsCmd = &cobra.Command{
	Use:     "selections",
	Short:   "List the selection history, newest first",
	GroupID: "spin",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := &client.SelectionQuery{}
		q.MeetingID, _ = cmd.Flags().GetString("meeting")
		q.ParticipantID, _ = cmd.Flags().GetString("participant")
		q.Department, _ = cmd.Flags().GetString("department")
		q.TeamID, _ = cmd.Flags().GetString("team")
		q.Limit, _ = cmd.Flags().GetInt("limit")

		records, err := spinnerClient.ListSelections(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("listing selections: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), records)
		}
		printSelectionList(cmd.OutOrStdout(), records)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete selection history and reset pick counters",
	Long: `Delete selection history within the organization. With no flags the
whole organization's history is cleared; --meeting, --department and --team
narrow the deletion. Participant and meeting counters are recomputed from
the remaining history.`,
	GroupID: "spin",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := scopeFlags(cmd)
		if scope.MeetingID == "" && scope.Department == "" && scope.TeamID == "" {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("refusing to clear all history for the organization without --yes")
			}
		}

		n, err := spinnerClient.ClearHistory(cmd.Context(), scope)
		if err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]int{"cleared_count": n})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %d selections\n", n)
		return nil
	},
}

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().String("meeting", "", "limit to one meeting")
	cmd.Flags().String("department", "", "limit to one department")
	cmd.Flags().String("team", "", "limit to one team")
}

func scopeFlags(cmd *cobra.Command) *client.Scope {
	s := &client.Scope{}
	s.MeetingID, _ = cmd.Flags().GetString("meeting")
	s.Department, _ = cmd.Flags().GetString("department")
	s.TeamID, _ = cmd.Flags().GetString("team")
	return s
}

func init() {
	addScopeFlags(selectionsCmd)
	selectionsCmd.Flags().String("participant", "", "limit to one participant")
	selectionsCmd.Flags().Int("limit", 0, "maximum records to return (server default 100)")

	addScopeFlags(clearCmd)
	clearCmd.Flags().Bool("yes", false, "confirm clearing the whole organization")
}
