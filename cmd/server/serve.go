package main

import (
	"adaptive-cache-service/internal/app"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := fx.New(app.Options(cfg))
		if err := a.Err(); err != nil {
			return err
		}
		a.Run()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
