package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/structqs"
	"github.com/wippyai/structqs/internal/parse"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type viewMode int

const (
	viewTree viewMode = iota
	viewJSON
	viewEncoded
)

var viewNames = [...]string{
	viewTree:    "tree",
	viewJSON:    "json",
	viewEncoded: "re-encoded",
}

type inspectModel struct {
	codec  *structqs.Codec
	opts   parse.Options
	styles treeStyles
	input  textinput.Model
	mode   viewMode

	treeOut string
	jsonOut string
	encOut  string
	err     error
}

func newInspectModel(c *structqs.Codec, opts parse.Options, initial string) *inspectModel {
	ti := textinput.New()
	ti.Placeholder = "a=1&b.c=2&tags=x,y"
	ti.Prompt = "? "
	ti.Width = 72
	ti.SetValue(initial)
	ti.Focus()

	m := &inspectModel{
		codec:  c,
		opts:   opts,
		styles: newTreeStyles(true),
		input:  ti,
	}
	m.evaluate()
	return m
}

// evaluate re-parses the current input and refreshes every view.
func (m *inspectModel) evaluate() {
	q := m.input.Value()
	m.treeOut, m.jsonOut, m.encOut, m.err = "", "", "", nil

	root, err := parse.Parse(q, m.opts)
	if err != nil {
		m.err = err
		return
	}
	m.treeOut = renderTree(root, m.styles)

	var v map[string]any
	if err := m.codec.UnmarshalString(q, &v); err != nil {
		m.err = err
		return
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		m.err = err
		return
	}
	m.jsonOut = string(out)

	enc, err := m.codec.MarshalString(v)
	if err != nil {
		m.err = err
		return
	}
	m.encOut = enc
}

func (m *inspectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			m.mode = (m.mode + 1) % viewMode(len(viewNames))
			return m, nil
		case "shift+tab":
			m.mode = (m.mode + viewMode(len(viewNames)) - 1) % viewMode(len(viewNames))
			return m, nil
		}
	case tea.WindowSizeMsg:
		if msg.Width > 8 {
			m.input.Width = msg.Width - 4
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.evaluate()
	}
	return m, cmd
}

func (m *inspectModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Query Inspector"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	for i, name := range viewNames {
		if viewMode(i) == m.mode {
			b.WriteString(activeTabStyle.Render(name))
		} else {
			b.WriteString(tabStyle.Render(name))
		}
	}
	b.WriteString("\n\n")

	switch m.mode {
	case viewTree:
		b.WriteString(m.treeOut)
	case viewJSON:
		b.WriteString(m.jsonOut)
		b.WriteByte('\n')
	case viewEncoded:
		b.WriteString(m.styles.value.Render(m.encOut))
		b.WriteByte('\n')
	}

	if m.err != nil {
		b.WriteByte('\n')
		b.WriteString(m.styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(helpStyle.Render("type to edit • tab switch view • esc quit"))
	return b.String()
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [query]",
	Short: "Edit a query string interactively",
	Long: `Open a terminal editor that re-parses the query on every keystroke and
shows its tree, its JSON decoding and its canonical re-encoding.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !isTerminal(cmd.OutOrStdout()) {
			return fmt.Errorf("inspect needs an interactive terminal; use decode or tree instead")
		}
		var initial string
		if len(args) > 0 {
			initial = args[0]
		}
		p := tea.NewProgram(newInspectModel(codec, parseOptions(), initial), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}
