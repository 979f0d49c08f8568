package commands

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "nfekey",
	Short: "NF-e access key tools",
	Long: `nfekey finds and validates the 44-digit NF-e / NFC-e access key.

It runs the same extraction cascade as the API server against a local PDF,
checks keys by hand and generates credentials for the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

// SetVersion sets the version shown by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
