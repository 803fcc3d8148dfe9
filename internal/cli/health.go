package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			healthURL, err := healthURLFrom(cfg.ServerURL)
			if err != nil {
				out.PrintError(err)
				return err
			}

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Get(healthURL)
			if err != nil {
				out.PrintError(err)
				return err
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("server unhealthy: %d %s", resp.StatusCode, strings.TrimSpace(string(body)))
				out.PrintError(err)
				return err
			}

			var status map[string]string
			if err := json.Unmarshal(body, &status); err == nil {
				out.PrintMessage(fmt.Sprintf("server healthy: %s", status["status"]))
			} else {
				out.PrintMessage("server healthy")
			}
			return nil
		},
	}
}

// healthURLFrom derives the /healthz URL from the WebSocket URL
func healthURLFrom(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "ws":
		u.Scheme = "http"
	case "wss":
		u.Scheme = "https"
	}
	u.Path = "/healthz"
	return u.String(), nil
}
