package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newScrapeCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "scrape URL [URL...]",
		Short: "Scrapes one or more URLs and prints the results as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			service := appInstance.GetService()
			if len(args) == 1 {
				result, err := service.Scrape(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("scrape %s: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), result)
			}
			return printJSON(cmd.OutOrStdout(), service.ScrapeMany(cmd.Context(), args, limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "concurrent scrapes for multiple URLs (default scraper.batch_limit)")
	return cmd
}

func newRobotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "robots URL",
		Short: "Reports whether robots.txt and the domain policy allow a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			decision, err := appInstance.GetService().Robots(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("robots %s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), decision)
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status URL",
		Short: "Reports whether a site responds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			status, err := appInstance.GetService().Status(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("status %s: %w", args[0], err)
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
