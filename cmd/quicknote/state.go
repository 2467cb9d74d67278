package main

import (
	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the effective configuration and component state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		doc := map[string]any{
			"config":  cfg,
			"service": svc.State(),
		}
		if intro, ok := svc.Storage().(introspection.Introspectable); ok {
			doc["storage"] = intro.State()
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
