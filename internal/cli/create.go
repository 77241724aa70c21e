package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rflorenc/towerctl/internal/models"
	"github.com/rflorenc/towerctl/internal/tower"
)

func newCreateCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a resource from a YAML file",
		Long: `Create a resource described by a YAML or JSON file. References to other
resources (organization, inventory, project, credential) take a name or an id.`,
	}
	cmd.AddCommand(
		createCommand(o, "organization", "Create an organization", (*tower.Tower).CreateOrganization),
		createCommand(o, "inventory", "Create an inventory", (*tower.Tower).CreateInventory),
		createCommand(o, "group", "Create an inventory group", (*tower.Tower).CreateInventoryGroup),
		createCommand(o, "host", "Create an inventory host", (*tower.Tower).CreateInventoryHost),
		createCommand(o, "credential", "Create a credential", (*tower.Tower).CreateCredential),
		createCommand(o, "project", "Create a project, staging its playbooks first", (*tower.Tower).CreateProject),
		createCommand(o, "link", "Attach a credential to a job template", (*tower.Tower).AttachCredential),
		newCreateJobTemplateCommand(o),
	)
	return cmd
}

func createCommand[T any](o *options, use, short string, build func(*tower.Tower, context.Context, T) *models.Result) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   use + " -f <file>",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var body T
			if err := readYAML(file, &body); err != nil {
				return err
			}
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), build(e.tower(e.conn), cmd.Context(), body))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file describing the resource")
	mustFlag(cmd, "file")
	return cmd
}

func newCreateJobTemplateCommand(o *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:     "job-template -f <file>",
		Aliases: []string{"job_template", "template"},
		Short:   "Create a job template and attach its credential",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var jt tower.JobTemplate
			if err := readYAML(file, &jt); err != nil {
				return err
			}
			e, err := o.load(cmd)
			if err != nil {
				return err
			}
			res := e.tower(e.conn).CreateJobTemplate(cmd.Context(), jt)
			return printJSON(cmd.OutOrStdout(), res, res.OK())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file describing the job template")
	mustFlag(cmd, "file")
	return cmd
}
