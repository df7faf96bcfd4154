package editor

import (
	"os/exec"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type Editor struct {
	Editing   bool   // Is the editor open
	EditorCmd string // Command to open the editor on shell, may carry flags
}

// Msg for when editor is closed.
type EditingFinished struct {
	Path string
	Err  error
}

// command builds the editor invocation for path.
func (m Editor) command(path string) *exec.Cmd {
	fields := strings.Fields(m.EditorCmd)
	if len(fields) == 0 {
		fields = []string{"vi"}
	}
	args := append(fields[1:], path)
	return exec.Command(fields[0], args...)
}

// this opens up an external editor.
func (m *Editor) EditFile(path string) tea.Cmd {
	m.Editing = true
	return tea.ExecProcess(m.command(path), func(err error) tea.Msg {
		return EditingFinished{Path: path, Err: err}
	})
}

func (m Editor) Update(msg tea.Msg) (Editor, tea.Cmd) {
	switch msg.(type) {
	case EditingFinished:
		m.Editing = false
	}
	return m, nil
}
