package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/youngmentor/Name-Spinner-Backend/internal/client"
	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

var spinCmd = &cobra.Command{
	Use:     "spin <meeting-id>",
	Short:   "Spin the wheel and record who was picked",
	GroupID: "spin",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.SpinRequest{}
		req.Department, _ = cmd.Flags().GetString("department")
		req.SessionID, _ = cmd.Flags().GetString("session")

		method, err := methodFlag(cmd)
		if err != nil {
			return err
		}
		req.SelectionMethod = method

		if includeRecent, _ := cmd.Flags().GetBool("include-recent"); includeRecent {
			exclude := false
			req.ExcludeRecentlySelected = &exclude
		}
		if cmd.Flags().Changed("duration") {
			d, _ := cmd.Flags().GetInt("duration")
			req.DurationMs = &d
		}

		res, err := spinnerClient.Spin(cmd.Context(), args[0], req)
		if err != nil {
			return fmt.Errorf("spinning meeting %s: %w", args[0], err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printSpinResult(cmd.OutOrStdout(), res)
		return nil
	},
}

var recordCmd = &cobra.Command{
	Use:     "record <meeting-id> <participant-id>",
	Short:   "Record a pick made outside the wheel",
	GroupID: "spin",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.RecordRequest{ParticipantID: args[1]}
		req.SessionID, _ = cmd.Flags().GetString("session")

		method, err := methodFlag(cmd)
		if err != nil {
			return err
		}
		req.SelectionMethod = method

		if cmd.Flags().Changed("duration") {
			d, _ := cmd.Flags().GetInt("duration")
			req.DurationMs = &d
		}
		if raw, _ := cmd.Flags().GetString("metadata"); raw != "" {
			if !json.Valid([]byte(raw)) {
				return fmt.Errorf("--metadata must be valid JSON")
			}
			req.Metadata = json.RawMessage(raw)
		}

		rec, err := spinnerClient.RecordSelection(cmd.Context(), args[0], req)
		if err != nil {
			return fmt.Errorf("recording selection: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rec)
		}
		printSelection(cmd.OutOrStdout(), rec)
		return nil
	},
}

// methodFlag parses --method, leaving it empty when unset so the server
// falls back to the meeting default.
func methodFlag(cmd *cobra.Command) (model.SelectionMethod, error) {
	raw, _ := cmd.Flags().GetString("method")
	if raw == "" {
		return "", nil
	}
	return model.ParseSelectionMethod(raw)
}

func init() {
	spinCmd.Flags().String("department", "", "only spin among this department")
	spinCmd.Flags().String("method", "", "selection method: random, weighted or manual")
	spinCmd.Flags().Bool("include-recent", false, "allow participants picked within the last 24 hours")
	spinCmd.Flags().Int("duration", 0, "spin animation duration in milliseconds")
	spinCmd.Flags().String("session", "", "client session ID stored on the record")

	recordCmd.Flags().String("method", "", "selection method to store (default manual)")
	recordCmd.Flags().Int("duration", 0, "time to pick in milliseconds")
	recordCmd.Flags().String("session", "", "client session ID stored on the record")
	recordCmd.Flags().String("metadata", "", "JSON object stored on the record")
}
