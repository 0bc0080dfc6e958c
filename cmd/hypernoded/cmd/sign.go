package cmd

import (
	"crypto/ed25519"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hypernode-network/hypernode/api"
)

// SignCmd prints the authentication headers for one request, ready to be
// passed to curl. The signature binds the method, path, timestamp and body,
// and the server accepts it for five minutes.
func SignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a request for the HTTP API",
		Example: `  hypernoded sign --key operator.json --path /v1/jobs --body job.json
  echo '{"stake_id":"s1","amount":"100000000","duration_seconds":1209600}' | hypernoded sign --key staker.json --path /v1/stakes
  hypernoded sign --key operator.json --method DELETE --path /v1/own/nodes/gpu-1 --body /dev/null`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keyPath, _ := cmd.Flags().GetString(flagKeyFile)
			bodyPath, _ := cmd.Flags().GetString("body")
			method, _ := cmd.Flags().GetString("method")
			path, _ := cmd.Flags().GetString("path")
			timestamp, _ := cmd.Flags().GetInt64("timestamp")
			if !strings.HasPrefix(path, "/") {
				return fmt.Errorf("path must start with /, got %q", path)
			}
			if timestamp == 0 {
				timestamp = time.Now().Unix()
			}

			key, err := readKeyFile(keyPath)
			if err != nil {
				return err
			}
			priv, err := key.PrivateKey()
			if err != nil {
				return err
			}

			var body []byte
			if bodyPath == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(bodyPath)
			}
			if err != nil {
				return fmt.Errorf("failed to read request body: %w", err)
			}

			method = strings.ToUpper(method)
			sig := api.SignRequest(func(msg []byte) []byte { return ed25519.Sign(priv, msg) }, method, path, timestamp, body)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", api.HeaderSigner, key.PublicKey)
			fmt.Fprintf(out, "%s: %d\n", api.HeaderTimestamp, timestamp)
			fmt.Fprintf(out, "%s: %s\n", api.HeaderSignature, sig)
			return nil
		},
	}
	cmd.Flags().String(flagKeyFile, "", "Key file written by 'keys generate'")
	cmd.Flags().String("body", "-", "File holding the exact request body, or - for stdin")
	cmd.Flags().String("method", "POST", "HTTP method of the request")
	cmd.Flags().String("path", "", "Request path, for example /v1/jobs")
	cmd.Flags().Int64("timestamp", 0, "Unix timestamp to sign (defaults to now)")
	_ = cmd.MarkFlagRequired(flagKeyFile)
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
