package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/camel/internal/presentation"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List registered tags as JSON",
	Long: `List every dumper and loader of the composed registries, in
composition order, as JSON.

Examples:
  camel tags

  # Only the loaders
  camel tags | jq '.[] | select(.kind == "loader") | .tag'

  # Without the extended registry
  camel tags --extended=false`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, shutdown, err := newCodec()
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(cmd.Context()) }()

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		return formatter.FormatTags(presentation.FromRegistries(c.Registries()))
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
