package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/xihi/internal/config"
	"github.com/mattjoyce/xihi/internal/webhook"
)

// newSignCmd computes or checks the signature header for a payload file,
// for replaying deliveries with curl.
func newSignCmd() *cobra.Command {
	var (
		secret    string
		algorithm string
		verify    string
	)
	cmd := &cobra.Command{
		Use:   "sign [file|-]",
		Short: "Compute or verify a webhook signature for a payload",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv(config.EnvSecret)
			}
			if secret == "" {
				return &exitError{code: 1, err: fmt.Errorf("no secret: pass --secret or set %s", config.EnvSecret)}
			}

			alg := webhook.Algorithm(algorithm)
			if alg != webhook.SHA1 && alg != webhook.SHA256 {
				return &exitError{code: 1, err: fmt.Errorf("unsupported algorithm %q", algorithm)}
			}

			body, err := readPayload(cmd.InOrStdin(), args)
			if err != nil {
				return &exitError{code: 1, err: err}
			}

			if verify != "" {
				err := webhook.VerifySignature(alg, []byte(secret), body, verify)
				if errors.Is(err, webhook.ErrSignatureMismatch) {
					fmt.Fprintln(cmd.OutOrStdout(), "signature mismatch")
					return &exitError{code: 1}
				}
				if err != nil {
					return &exitError{code: 1, err: err}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "signature ok")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), webhook.Sign(alg, []byte(secret), body))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Shared secret (default $XIHI_SECRET)")
	cmd.Flags().StringVar(&algorithm, "algorithm", string(webhook.SHA1), "Digest algorithm: sha1 or sha256")
	cmd.Flags().StringVar(&verify, "verify", "", "Check this signature header value instead of printing one")
	return cmd
}

func readPayload(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}
