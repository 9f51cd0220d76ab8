package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/youngmentor/Name-Spinner-Backend/internal/client"
	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

var meetingsCmd = &cobra.Command{
	Use:     "meetings",
	Aliases: []string{"meeting"},
	Short:   "Create and inspect meetings",
	GroupID: "registry",
}

var meetingsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a meeting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.CreateMeetingRequest{Name: args[0]}
		req.Department, _ = cmd.Flags().GetString("department")
		req.TeamID, _ = cmd.Flags().GetString("team")
		req.Roster, _ = cmd.Flags().GetStringSlice("roster")

		method, err := methodFlag(cmd)
		if err != nil {
			return err
		}
		req.Settings = model.MeetingSettings{SelectionMethod: method}

		m, err := spinnerClient.CreateMeeting(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("creating meeting: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created meeting %s\n", m.ID)
		return nil
	},
}

var meetingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List meetings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := &client.ListQuery{}
		q.Department, _ = cmd.Flags().GetString("department")
		q.TeamID, _ = cmd.Flags().GetString("team")

		meetings, err := spinnerClient.ListMeetings(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("listing meetings: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), meetings)
		}
		printMeetingList(cmd.OutOrStdout(), meetings)
		return nil
	},
}

var meetingsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a meeting and its spin statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := spinnerClient.GetMeeting(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("getting meeting %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}
		printMeeting(cmd.OutOrStdout(), m)
		return nil
	},
}

var participantsCmd = &cobra.Command{
	Use:     "participants",
	Aliases: []string{"participant", "people"},
	Short:   "Create and list participants",
	GroupID: "registry",
}

var participantsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a participant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.CreateParticipantRequest{Name: args[0]}
		req.Email, _ = cmd.Flags().GetString("email")
		req.Department, _ = cmd.Flags().GetString("department")
		req.TeamID, _ = cmd.Flags().GetString("team")
		if inactive, _ := cmd.Flags().GetBool("inactive"); inactive {
			active := false
			req.Active = &active
		}

		p, err := spinnerClient.CreateParticipant(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("creating participant: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created participant %s\n", p.ID)
		return nil
	},
}

var participantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List participants",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := &client.ListQuery{}
		q.Department, _ = cmd.Flags().GetString("department")
		q.TeamID, _ = cmd.Flags().GetString("team")
		q.ActiveOnly, _ = cmd.Flags().GetBool("active")

		participants, err := spinnerClient.ListParticipants(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("listing participants: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), participants)
		}
		printParticipantList(cmd.OutOrStdout(), participants)
		return nil
	},
}

var participantsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a participant and their pick history counters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := spinnerClient.GetParticipant(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("getting participant %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printParticipant(cmd.OutOrStdout(), p)
		return nil
	},
}

func init() {
	meetingsCreateCmd.Flags().String("department", "", "department the meeting spins among")
	meetingsCreateCmd.Flags().String("team", "", "team the meeting spins among")
	meetingsCreateCmd.Flags().StringSlice("roster", nil, "explicit participant IDs (overrides department/team)")
	meetingsCreateCmd.Flags().String("method", "", "default selection method")

	meetingsListCmd.Flags().String("department", "", "filter by department")
	meetingsListCmd.Flags().String("team", "", "filter by team")

	meetingsCmd.AddCommand(meetingsCreateCmd)
	meetingsCmd.AddCommand(meetingsListCmd)
	meetingsCmd.AddCommand(meetingsShowCmd)

	participantsCreateCmd.Flags().String("email", "", "email address")
	participantsCreateCmd.Flags().String("department", "", "department")
	participantsCreateCmd.Flags().String("team", "", "team")
	participantsCreateCmd.Flags().Bool("inactive", false, "create the participant as inactive")

	participantsListCmd.Flags().String("department", "", "filter by department")
	participantsListCmd.Flags().String("team", "", "filter by team")
	participantsListCmd.Flags().Bool("active", false, "only active participants")

	participantsCmd.AddCommand(participantsCreateCmd)
	participantsCmd.AddCommand(participantsListCmd)
	participantsCmd.AddCommand(participantsShowCmd)
}
