package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/xihi/internal/config"
	"github.com/mattjoyce/xihi/internal/doctor"
)

const redacted = "<redacted>"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}
	cmd.AddCommand(newConfigCheckCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

// newConfigCheckCmd exits 0 when clean, 1 on errors and 2 on warnings only.
func newConfigCheckCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate configuration and GitHub App setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(configFlag(cmd))
			if err != nil {
				return &exitError{code: 1, err: fmt.Errorf("load error: %w", err)}
			}

			result := doctor.New(cfg).Validate()

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				printValidationSummary(out, result)
			}

			switch {
			case !result.Valid:
				return &exitError{code: 1}
			case len(result.Warnings) > 0:
				return &exitError{code: 2}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in structured JSON format")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(configFlag(cmd))
			if err != nil {
				return fmt.Errorf("load error: %w", err)
			}
			if cfg.Webhook.Secret != "" {
				cfg.Webhook.Secret = redacted
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in structured JSON format")
	return cmd
}

func printValidationSummary(w io.Writer, result *doctor.Result) {
	printIssue := func(level string, issue doctor.Issue) {
		if issue.Field != "" {
			fmt.Fprintf(w, "  %-5s [%s] %s: %s\n", level, issue.Category, issue.Field, issue.Message)
		} else {
			fmt.Fprintf(w, "  %-5s [%s] %s\n", level, issue.Category, issue.Message)
		}
	}

	switch {
	case !result.Valid:
		fmt.Fprintf(w, "Validation: failed (%d error(s), %d warning(s))\n", len(result.Errors), len(result.Warnings))
		for _, issue := range result.Errors {
			printIssue("ERROR", issue)
		}
	case len(result.Warnings) == 0:
		fmt.Fprintln(w, "Validation: ✓ All checks passed")
		return
	default:
		fmt.Fprintf(w, "Validation: ✓ passed with %d warning(s)\n", len(result.Warnings))
	}
	for _, issue := range result.Warnings {
		printIssue("WARN", issue)
	}
}
