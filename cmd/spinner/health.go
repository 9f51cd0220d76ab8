package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/youngmentor/Name-Spinner-Backend/internal/client"
)

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the spinner service",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		want := "ok"
		var (
			status string
			err    error
		)
		if addr, _ := cmd.Flags().GetString("grpc-addr"); addr != "" {
			want = "SERVING"
			status, err = grpcHealth(ctx, addr)
		} else {
			status, err = spinnerClient.Health(ctx)
		}
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}

		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), map[string]string{"status": status}); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Health: %s\n", status)
		}

		if status != want {
			return fmt.Errorf("unhealthy: %s", status)
		}
		return nil
	},
}

func grpcHealth(ctx context.Context, addr string) (string, error) {
	hc, err := client.NewHealthClient(addr)
	if err != nil {
		return "", err
	}
	defer hc.Close()
	return hc.Check(ctx)
}

func init() {
	healthCmd.Flags().String("grpc-addr", "", "check the gRPC health service at this address instead of HTTP")
}
