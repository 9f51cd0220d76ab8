package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/youngmentor/Name-Spinner-Backend/internal/client"
	"github.com/youngmentor/Name-Spinner-Backend/internal/ui"
)

var (
	httpURL    string
	authToken  string
	orgID      string
	jsonOutput bool
	noColor    bool

	spinnerClient client.SpinnerClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("SPINNER_HTTP_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func defaultToken() string {
	if s := os.Getenv("SPINNER_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

func defaultOrganization() string {
	if s := os.Getenv("SPINNER_ORG"); s != "" {
		return s
	}
	return activeRemoteOrganization()
}

var rootCmd = &cobra.Command{
	Use:           "spinner <command>",
	Short:         "Pick meeting participants fairly and track who was picked",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupColor()
		spinnerClient = client.NewHTTPClient(httpURL, authToken, orgID)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if spinnerClient != nil {
			spinnerClient.Close()
		}
	},
}

func setupColor() {
	ui.SetColor(!noColor && !jsonOutput && ui.ShouldUseColor())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "http-url", defaultHTTPURL(), "spinner server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultToken(), "bearer token for authentication")
	rootCmd.PersistentFlags().StringVar(&orgID, "org", defaultOrganization(), "organization ID sent with every request")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "spin", Title: "Spinning:"},
		&cobra.Group{ID: "registry", Title: "Meetings & Participants:"},
		&cobra.Group{ID: "analytics", Title: "Analytics:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Spinning
	rootCmd.AddCommand(spinCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(selectionsCmd)
	rootCmd.AddCommand(clearCmd)

	// Registry
	rootCmd.AddCommand(meetingsCmd)
	rootCmd.AddCommand(participantsCmd)

	// Analytics
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(exportCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
