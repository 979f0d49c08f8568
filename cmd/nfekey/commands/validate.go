package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shimizu-Technology/nfe-key-api/internal/accesskey"
)

var errInvalidKey = errors.New("invalid access key")

var validateCmd = &cobra.Command{
	Use:   "validate <key>",
	Short: "Check an access key and show its fields",
	Long:  "Run every layout rule against the key. Separators are ignored. Exits non-zero when a rule fails.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type validateOutput struct {
	Valid      bool                  `json:"valid"`
	Key        string                `json:"chave"`
	Checks     []accesskey.Check     `json:"checks"`
	Components *accesskey.Components `json:"components,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := validateOutput{
		Key:    accesskey.OnlyDigits(args[0]),
		Checks: accesskey.Inspect(args[0]),
	}
	if k, err := accesskey.Parse(args[0]); err == nil {
		out.Valid = true
		c := k.Components()
		out.Components = &c
	}

	w := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(w, out); err != nil {
			return err
		}
	} else {
		for _, c := range out.Checks {
			mark := "✅"
			if !c.Passed {
				mark = "❌"
			}
			fmt.Fprintf(w, "%s %-12s %s\n", mark, c.Rule, c.Detail)
		}
		if c := out.Components; c != nil {
			fmt.Fprintf(w, "\nuf=%s emitted=20%s-%s cnpj=%s model=%s series=%s number=%s\n",
				c.UF, c.Year, c.Month, c.IssuerCNPJ, c.Model, c.Series, c.Number)
		}
	}

	if !out.Valid {
		return errInvalidKey
	}
	return nil
}
