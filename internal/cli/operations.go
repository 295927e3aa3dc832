package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strataspec/strata/internal/contract"
	"github.com/strataspec/strata/internal/diag"
)

// OperationInfo is one registry entry in the operations listing.
type OperationInfo struct {
	ID          string                `json:"id"`
	Occurrences []contract.Occurrence `json:"occurrences"`
	RootKeys    []string              `json:"root_keys,omitempty"`
	Resolved    bool                  `json:"resolved"`
}

// OperationsResult is the operations command's payload.
type OperationsResult struct {
	Operations  []OperationInfo   `json:"operations"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
}

// NewOperationsCommand creates the operations command.
func NewOperationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operations <contract-file>",
		Short: "List the operation registry of an API contract",
		Long: `Parse an external API contract and print its operation registry with
resolved response root keys. Registry errors (missing or duplicate
operation ids) are reported alongside.

Examples:
  strata operations ./api/openapi.yaml
  strata operations ./api/openapi.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperations(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runOperations(opts *RootOptions, contractPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(contractPath)
	if err != nil {
		_ = formatter.Error("E_CONTRACT", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read contract", err)
	}
	doc, err := contract.Parse(data)
	if err != nil {
		_ = formatter.Error("E_CONTRACT", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to parse contract", err)
	}

	registry, diags := contract.BuildRegistry(doc)

	result := OperationsResult{Diagnostics: diags}
	for _, id := range registry.SortedIDs() {
		op := registry.Operations[id]
		result.Operations = append(result.Operations, OperationInfo{
			ID:          op.ID,
			Occurrences: op.Occurrences,
			RootKeys:    op.RootKeys,
			Resolved:    op.RootKeysResolved,
		})
	}

	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Operations: %d\n\n", len(result.Operations))
	for _, op := range result.Operations {
		fmt.Fprintf(w, "%s\n", op.ID)
		for _, occ := range op.Occurrences {
			fmt.Fprintf(w, "  %s %s\n", occ.Method, occ.Path)
		}
		if op.Resolved {
			fmt.Fprintf(w, "  root keys: %s\n", diag.SortedList(op.RootKeys))
		} else {
			fmt.Fprintln(w, "  root keys: unresolved")
		}
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintln(w, d.String())
	}

	return nil
}
