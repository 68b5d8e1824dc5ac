package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/wage-engine/factory"
	"gopkg.in/yaml.v3"
)

func (a *app) policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect wage policies",
	}
	cmd.AddCommand(a.policyShowCmd())
	cmd.AddCommand(a.policyPresetsCmd())
	cmd.AddCommand(a.policyValidateCmd())
	return cmd
}

func (a *app) policyShowCmd() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the selected policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.localPolicy()
			if err != nil {
				return err
			}
			doc := factory.ToJSON(p)
			if asYAML {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return err
				}
				return enc.Close()
			}
			return printJSON(cmd.OutOrStdout(), doc)
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as YAML")
	return cmd
}

func (a *app) policyPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List statutory presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := factory.Presets()
			docs := make([]factory.PolicyJSON, len(presets))
			for i, p := range presets {
				docs[i] = factory.ToJSON(p)
			}
			return printJSON(cmd.OutOrStdout(), docs)
		},
	}
}

func (a *app) policyValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a policy document and print it with defaults filled in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := factory.NewPolicyFactory().LoadPolicyFile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), factory.ToJSON(p))
		},
	}
}
