package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Qefaraki/treescape/internal/server"
	"github.com/Qefaraki/treescape/pkg/store"
	"github.com/Qefaraki/treescape/pkg/tree"
)

// serveCommand creates the reference data server command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		treeFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve tree regions over HTTP",
		Long: `Serve runs the reference data server: the /v1/nodes region and
initial-load endpoints the engine's HTTP source consumes. The tree comes
from a JSON file, or a generated demo tree when no file is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}

			var t tree.Tree
			if treeFile == "" {
				t = tree.Generate(tree.GenerateOptions{Count: c.Config.Demo.Count, Seed: c.Config.Demo.Seed})
				c.Logger.Info("serving generated demo tree", "nodes", len(t.Nodes))
			} else {
				var err error
				t, err = tree.ReadFile(treeFile)
				if err != nil {
					return fmt.Errorf("read tree %s: %w", treeFile, err)
				}
				c.Logger.Info("serving tree file", "path", treeFile, "nodes", len(t.Nodes))
			}

			src := store.NewMemorySource(t.Nodes)
			if src.Len() == 0 {
				return fmt.Errorf("no valid nodes to serve")
			}

			printInfo("Listening on %s", addr)
			return server.New(src, c.Logger).Serve(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVarP(&treeFile, "tree", "t", "", "JSON tree file to serve")
	return cmd
}
