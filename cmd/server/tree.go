package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"equilibrium/internal/placement/models"
	id "equilibrium/pkg/domain"
)

func treeCmd() *cobra.Command {
	var (
		rootFlag string
		depth    int
	)
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print a subtree as indented text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var root *id.MemberID
			if rootFlag != "" {
				parsed, err := id.ParseMemberID(rootFlag)
				if err != nil {
					return err
				}
				root = &parsed
			}
			var maxDepth *int
			if depth >= 0 {
				maxDepth = &depth
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.service.GetSubtree(cmd.Context(), root, maxDepth)
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), view, 0)
			return nil
		},
	}
	cmd.Flags().StringVar(&rootFlag, "root", "", "member id to start from (default: tree root)")
	cmd.Flags().IntVar(&depth, "depth", -1, "levels below the root to print (-1: all)")
	return cmd
}

func printTree(w io.Writer, view *models.TreeView, indent int) {
	fmt.Fprintf(w, "%s%d. %s (level %d, %s)\n",
		strings.Repeat("  ", indent), view.Position, view.MemberID, view.Level, view.TariffCode)
	for _, child := range view.Children {
		printTree(w, child, indent+1)
	}
}
