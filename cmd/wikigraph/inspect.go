package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	domainconfig "github.com/Apanazar/WGE/domain/config"
	"github.com/Apanazar/WGE/infrastructure/persistence/schema"
)

func inspectCmd() *cobra.Command {
	var showEdges bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Validate a saved graph and summarize its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if verbose {
				logger, _ = zap.NewDevelopment()
			}
			codec := schema.NewCodec(domainconfig.DefaultDomainConfig(), logger)
			graph, info, err := codec.Decode(data)
			if err != nil {
				fmt.Printf("%s %s\n", statusIcon(false), err)
				return err
			}

			fmt.Printf("%s %s\n", statusIcon(true), brand.Sprint(args[0]))
			fmt.Printf("  version   %s\n", info.Version)
			if !info.SavedAt.IsZero() {
				fmt.Printf("  saved     %s\n", info.SavedAt.Local().Format("2006-01-02 15:04:05"))
			}
			if info.Language != "" {
				fmt.Printf("  language  %s\n", info.Language)
			}
			fmt.Printf("  nodes     %d\n", info.NodeCount)
			fmt.Printf("  edges     %d\n\n", info.EdgeCount)

			nodes := graph.Nodes()
			sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
			rows := make([][]string, 0, len(nodes))
			for _, n := range nodes {
				detached := ""
				if n.IsDetached() {
					detached = warn.Sprint("detached")
				}
				rows = append(rows, []string{
					n.ID().String(),
					n.Type().String(),
					truncate(n.Label(), 40),
					string(n.Expansion()),
					detached,
				})
			}
			printTable([]string{"ID", "TYPE", "LABEL", "STATE", ""}, rows)

			if showEdges {
				fmt.Println()
				edges := graph.Edges()
				edgeRows := make([][]string, 0, len(edges))
				for _, e := range edges {
					edgeRows = append(edgeRows, []string{e.ID.String(), e.From.String(), e.To.String()})
				}
				printTable([]string{"EDGE", "FROM", "TO"}, edgeRows)
			}
			if len(nodes) == 0 {
				subtle.Println("  (empty graph)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showEdges, "edges", false, "Also list edges")
	return cmd
}
