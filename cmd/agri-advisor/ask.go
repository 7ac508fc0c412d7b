package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/app"
	"github.com/sweetpotato0/agri-advisor/mcp"
)

var (
	askJSON   bool
	askServer string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := strings.Join(args, " ")
		if askServer != "" {
			return askRemote(cmd, strings.Fields(askServer), q)
		}
		a, err := newApp(cmd.Context(), app.Options{LogWriter: cmd.ErrOrStderr()})
		if err != nil {
			return err
		}
		defer a.Close()

		resp := a.Service.Advise(cmd.Context(), q, language)
		return printResponse(cmd, resp, askJSON)
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
	askCmd.Flags().StringVar(&askServer, "server", "", `ask through an MCP server launched with this command, e.g. "agri-advisor mcp"`)
}

// askRemote answers q through the advise tool of a launched MCP server.
func askRemote(cmd *cobra.Command, argv []string, q string) error {
	client, err := mcp.Launch(cmd.Context(), argv, mcp.ClientOptions{Terminate: 5 * time.Second})
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Advise(cmd.Context(), q, language)
	if err != nil {
		return err
	}
	return printResponse(cmd, resp, askJSON)
}

func printResponse(cmd *cobra.Command, resp answer.Response, asJSON bool) error {
	out := cmd.OutOrStdout()
	if !asJSON {
		_, err := fmt.Fprintln(out, answer.Render(resp))
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
