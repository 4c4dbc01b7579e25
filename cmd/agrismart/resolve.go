package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a single fact through the store and provider tiers and print it as JSON",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "weather <location>",
			Short: "Resolve current weather for a location",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer a.logger.Sync() //nolint:errcheck

				snap, err := a.resolver.ResolveWeather(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				return printJSON(cmd, snap)
			},
		},
		&cobra.Command{
			Use:   "prices [crop]",
			Short: "Resolve market prices, optionally for one crop",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer a.logger.Sync() //nolint:errcheck

				var crop string
				if len(args) == 1 {
					crop = args[0]
				}
				res, err := a.resolver.ResolveMarketPrices(cmd.Context(), crop)
				if err != nil {
					return err
				}
				return printJSON(cmd, res)
			},
		},
	)
	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
