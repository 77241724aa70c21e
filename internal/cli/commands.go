package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rflorenc/towerctl/internal/credentials"
	"github.com/rflorenc/towerctl/internal/models"
)

func kindArg(name string) (models.Kind, error) {
	kind, ok := models.LookupKind(name)
	if !ok || kind.Path == "" {
		return models.Kind{}, usageError("unknown resource kind %q (known: %v)", name, models.KindNames())
	}
	return kind, nil
}

func newPingCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Report the platform version and scheme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			resp, res := e.tower(e.conn).Ping(cmd.Context())
			if !res.OK() {
				return printResult(cmd.OutOrStdout(), res)
			}
			return printJSON(cmd.OutOrStdout(), resp, true)
		},
	}
}

// newTypesCommand lists the credential types accepted by "create credential".
// It needs no connection.
func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the supported credential types and their inputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"platform_version": credentials.TableVersion,
				"types":            credentials.Types(),
			}, true)
		},
	}
}

func newFindCommand(o *options) *cobra.Command {
	var extra string
	cmd := &cobra.Command{
		Use:   "find <kind> [name]",
		Short: "Resolve a name to an id, or list a kind",
		Long: `Resolve a name to an id. The first resource whose name contains the
given text wins. Without a name, every id and name of the kind is listed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args[0])
			if err != nil {
				return err
			}
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			t := e.tower(e.conn)
			if len(args) == 1 {
				col := t.Collect(cmd.Context(), kind, extra)
				return printJSON(cmd.OutOrStdout(), col, col.OK())
			}
			lookup := t.Find(cmd.Context(), kind, args[1])
			if !lookup.Found {
				return printResult(cmd.OutOrStdout(), lookup.Envelope())
			}
			return printJSON(cmd.OutOrStdout(), lookup, true)
		},
	}
	cmd.Flags().StringVar(&extra, "extra", "", "Also collect this field of each resource")
	return cmd
}

func newGetCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <name|id>",
		Short: "Show one resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args[0])
			if err != nil {
				return err
			}
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			res := e.tower(e.conn).Get(cmd.Context(), kind, models.ParseReference(args[1]))
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func newDeleteCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <name|id>",
		Short: "Remove one resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args[0])
			if err != nil {
				return err
			}
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			res := e.tower(e.conn).Delete(cmd.Context(), kind, models.ParseReference(args[1]))
			return printResult(cmd.OutOrStdout(), res)
		},
	}
}

func newLaunchCommand(o *options) *cobra.Command {
	var varsFile string
	cmd := &cobra.Command{
		Use:   "launch <template>",
		Short: "Launch a job template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var extraVars map[string]interface{}
			if varsFile != "" {
				if err := readYAML(varsFile, &extraVars); err != nil {
					return err
				}
			}
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			res := e.tower(e.conn).LaunchJob(cmd.Context(), models.ParseReference(args[0]), extraVars)
			return printResult(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&varsFile, "extra-vars", "e", "", "YAML or JSON file with extra variables")
	return cmd
}

// readYAML decodes a YAML (or JSON) file into v.
func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usageError("reading %s: %v", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return usageError("parsing %s: %v", path, err)
	}
	return nil
}

func mustFlag(cmd *cobra.Command, name string) {
	if err := cmd.MarkFlagRequired(name); err != nil {
		panic(fmt.Sprintf("marking %s required: %v", name, err))
	}
}
