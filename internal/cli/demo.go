package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Qefaraki/treescape/pkg/tree"
)

// demoCommand creates the fixture generator command.
func (c *CLI) demoCommand() *cobra.Command {
	var (
		count  int
		seed   int64
		output string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate a deterministic demo tree",
		Long: `Demo writes a synthetic genealogy tree as JSON, suitable for
"treescape serve --tree" and for export. The same count and seed always
produce the same tree.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				count = c.Config.Demo.Count
			}

			t := tree.Generate(tree.GenerateOptions{Count: count, Seed: seed})

			if output == "" || output == "-" {
				if err := tree.Write(t, os.Stdout); err != nil {
					return err
				}
				return nil
			}
			if err := tree.WriteFile(t, output); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote %s", output)
			printStats(len(t.Nodes), generations(t.Nodes), false)
			printNextStep("Serve it", fmt.Sprintf("treescape serve --tree %s", output))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "number of nodes (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 7, "generation seed")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
	return cmd
}

// generations counts distinct generation depths, the tree's height.
func generations(nodes []tree.Node) int {
	max := -1
	for _, n := range nodes {
		if n.Generation > max {
			max = n.Generation
		}
	}
	return max + 1
}
