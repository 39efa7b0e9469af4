package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// taskDoneMsg carries the rendered result back to the TUI.
type taskDoneMsg struct {
	out string
	err error
}

// taskModel shows a spinner while run executes, then prints its output.
type taskModel struct {
	ctx     context.Context
	label   string
	run     func(context.Context) (string, error)
	spinner spinner.Model
	out     string
	err     error
	done    bool
}

func newTaskModel(ctx context.Context, label string, run func(context.Context) (string, error)) taskModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo
	return taskModel{
		ctx:     ctx,
		label:   label,
		run:     run,
		spinner: s,
	}
}

func (m taskModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case taskDoneMsg:
		m.out = msg.out
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m taskModel) View() string {
	if m.done {
		if m.err != nil {
			return styleError.Render("Error: "+m.err.Error()) + "\n"
		}
		return m.out
	}
	return m.spinner.View() + styleDim.Render(" "+m.label) + "\n"
}

func (m taskModel) start() tea.Cmd {
	return func() tea.Msg {
		out, err := m.run(m.ctx)
		return taskDoneMsg{out: out, err: err}
	}
}

// runTask runs fn behind a spinner and returns its error.
func runTask(ctx context.Context, label string, fn func(context.Context) (string, error)) error {
	p := tea.NewProgram(newTaskModel(ctx, label, fn))
	m, err := p.Run()
	if err != nil {
		return fmt.Errorf("run %s: %w", label, err)
	}

	tm, ok := m.(taskModel)
	if !ok {
		return fmt.Errorf("unexpected model type from tea program")
	}
	if !tm.done {
		return context.Canceled
	}
	return tm.err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
