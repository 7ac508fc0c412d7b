// Command agri-advisor answers farming questions from the command line, over
// HTTP, or as an MCP tool server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
