// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 MackanT

package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MackanT/NibeTester/pkg/rcuproto"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live 360P parameter dashboard",
	Long: `Emulate an RCU and show the pump's parameters in a live dashboard:
decoded values with names and units, bus statistics, and a filter box.

Type to filter parameters by name, 'esc' to clear, 'q' to quit.`,
	RunE: runTui,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Messages
type tuiTickMsg time.Time
type tuiUpdateMsg rcuproto.Update
type tuiCycleErrMsg struct{ err error }

// TUI model
type tuiModel struct {
	connInfo string
	stats    *rcuproto.Statistics
	filter   textinput.Model

	values   map[string]rcuproto.Update
	lastErr  string
	width    int
	height   int
	quitting bool
}

func newTuiModel(connInfo string, stats *rcuproto.Statistics) tuiModel {
	filter := textinput.New()
	filter.Placeholder = "filter parameters"
	filter.Prompt = "/ "
	filter.Focus()

	return tuiModel{
		connInfo: connInfo,
		stats:    stats,
		filter:   filter,
		values:   make(map[string]rcuproto.Update),
		width:    80,
		height:   24,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		tuiTickCmd(),
		tea.EnterAltScreen,
	)
}

func tuiTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tuiTickMsg(t)
	})
}

// valueKey keeps bit-field rows distinct from their parent register.
func valueKey(u rcuproto.Update) string {
	return fmt.Sprintf("%02X.%s", u.Index, u.Field)
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "esc":
			m.filter.SetValue("")
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tuiTickMsg:
		return m, tuiTickCmd()

	case tuiUpdateMsg:
		u := rcuproto.Update(msg)
		m.values[valueKey(u)] = u

	case tuiCycleErrMsg:
		m.lastErr = msg.err.Error()
	}

	return m, nil
}

func (m tuiModel) visibleValues() []rcuproto.Update {
	needle := strings.ToLower(m.filter.Value())

	out := make([]rcuproto.Update, 0, len(m.values))
	for _, u := range m.values {
		name := u.Name
		if u.Field != "" {
			name += "." + u.Field
		}
		if needle != "" && !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	nameStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	staleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	var s strings.Builder
	s.WriteString(titleStyle.Render("NIBETESTER - LIVE PARAMETERS"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("Connection: %s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n")
	s.WriteString(m.filter.View())
	s.WriteString("\n\n")

	values := m.visibleValues()
	if len(values) == 0 {
		s.WriteString(headerStyle.Render("Waiting for data..."))
		s.WriteString("\n")
	}

	now := time.Now()
	for _, u := range values {
		name := u.Name
		if name == "" {
			name = fmt.Sprintf("param 0x%02X", u.Index)
		}
		if u.Field != "" {
			name += "." + u.Field
		}

		line := fmt.Sprintf("%s %s",
			nameStyle.Render(fmt.Sprintf("%-32s", name)),
			valueStyle.Render(fmt.Sprintf("%10.1f %s", u.Value, u.Unit)))

		// Values the pump has not refreshed in a while are dimmed.
		if now.Sub(u.When) > 60*time.Second {
			line = staleStyle.Render(fmt.Sprintf("%-32s %10.1f %s (stale)", name, u.Value, u.Unit))
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	// Statistics footer
	snap := m.stats.Snapshot()
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf(
		"Frames: %d | Updates: %d | Checksum errors: %d | Cycles: %d (%d empty) | %.1f frames/sec",
		snap.FramesValid, snap.Updates, snap.ChecksumErrors,
		snap.Cycles, snap.EmptyCycles, snap.FrameRate)))
	s.WriteString("\n")
	if m.lastErr != "" {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Last error: %s", m.lastErr)))
		s.WriteString("\n")
	}

	return s.String()
}

func runTui(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	cat, err := loadCatalog360()
	if err != nil {
		return err
	}

	cfg := rcuproto.DefaultConfig()
	cfg.Logger = newLogger()
	stats := rcuproto.NewStatistics()
	session := rcuproto.NewSession(conn, cat, cfg, stats)

	p := tea.NewProgram(newTuiModel(connInfo, stats))

	session.Subscribe(rcuproto.ObserverFunc(func(u rcuproto.Update) {
		p.Send(tuiUpdateMsg(u))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := session.Run(ctx); err != nil && ctx.Err() == nil {
			p.Send(tuiCycleErrMsg{err: err})
		}
	}()

	_, err = p.Run()
	return err
}
