package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/structqs/internal/parse"
	"github.com/wippyai/structqs/internal/pct"
	"github.com/wippyai/structqs/internal/tree"
)

type treeStyles struct {
	key       lipgloss.Style
	value     lipgloss.Style
	owned     lipgloss.Style
	ambiguous lipgloss.Style
	err       lipgloss.Style
	help      lipgloss.Style
}

func newTreeStyles(color bool) treeStyles {
	if !color {
		plain := lipgloss.NewStyle()
		return treeStyles{plain, plain, plain, plain, plain, plain}
	}
	return treeStyles{
		key:       lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		value:     lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		owned:     lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true),
		ambiguous: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		err:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

var treeCmd = &cobra.Command{
	Use:   "tree [query]",
	Short: "Print the parsed value tree",
	Long: `Print the tree a query string parses into. Scalars that needed
percent-decoding are marked "decoded"; conflicting keys are shown as
ambiguous with the reason, without failing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := readQuery(cmd, args)
		if err != nil {
			return err
		}
		root, err := parse.Parse(q, parseOptions())
		if err != nil {
			return err
		}
		st := newTreeStyles(isTerminal(cmd.OutOrStdout()))
		_, err = fmt.Fprint(cmd.OutOrStdout(), renderTree(root, st))
		return err
	},
}

// renderTree draws one line per node below the root, indented by depth.
// Keys are shown escaped so a segment containing '.' stays distinguishable
// from nesting.
func renderTree(root *tree.Node, st treeStyles) string {
	var b strings.Builder
	tree.Walk(root, func(path []string, n *tree.Node) bool {
		if len(path) == 0 {
			if root.Kind() == tree.KindRecord && root.Record().Len() == 0 {
				b.WriteString(st.help.Render("(empty)"))
				b.WriteByte('\n')
			}
			return true
		}
		b.WriteString(strings.Repeat("  ", len(path)-1))
		b.WriteString(st.key.Render(pct.EncodeSegment(path[len(path)-1])))

		switch n.Kind() {
		case tree.KindScalar:
			b.WriteString(" = ")
			b.WriteString(st.value.Render(strconv.Quote(n.Text().String())))
			if n.Text().IsOwned() {
				b.WriteString(" ")
				b.WriteString(st.owned.Render("decoded"))
			}
		case tree.KindAmbiguous:
			b.WriteString(" ")
			b.WriteString(st.ambiguous.Render("ambiguous: " + n.Reason()))
		case tree.KindUnset:
			b.WriteString(" ")
			b.WriteString(st.help.Render("unset"))
		}
		b.WriteByte('\n')
		return true
	})
	return b.String()
}
