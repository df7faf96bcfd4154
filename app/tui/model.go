package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noelzubin/papers_search/app"
	"github.com/noelzubin/papers_search/editor"
	"github.com/noelzubin/papers_search/library"
	"github.com/noelzubin/papers_search/search"
	"github.com/noelzubin/papers_search/viewer"
	"github.com/samber/lo"
)

var (
	ListStyle    = lipgloss.NewStyle().MarginTop(1)
	PreviewStyle = lipgloss.NewStyle().MarginTop(1).PaddingLeft(1).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("62"))
	StatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(2)
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var whitespace = regexp.MustCompile(`\s{2,}|\t+`)

// Main app model for bubbletea
type Model struct {
	width     int             // width of terminal
	height    int             // height of terminal
	showing   bool            // is the preview pane open
	list      list.Model      // the result list
	textInput textinput.Model // the search box
	preview   viewport.Model  // the rendered document
	spinner   spinner.Model   // shown while a document loads
	editor    editor.Editor   // for opening up external editor.
	session   *app.Session
	result    search.Result  // latest search result
	display   viewer.Display // latest viewer display
	status    string         // one line message under the list
}

// Create a new model for the app
func New(session *app.Session) *Model {
	m := &Model{
		list:      create_list_model(),
		textInput: create_text_input(),
		preview:   viewport.New(0, 0),
		spinner:   create_spinner(),
		editor:    editor.Editor{Editing: false, EditorCmd: session.Config.Editor},
		session:   session,
		result:    session.Search.Current(),
		display:   session.Viewer.Display(),
	}
	m.showing = m.display.Status != viewer.Idle
	m.setItems(m.result.Documents)
	m.setPreview()
	return m
}

// This is emitted whenever the visible search result changes.
type ResultMsg struct {
	search.Result
}

// This is emitted whenever the preview changes.
type DisplayMsg struct {
	viewer.Display
}

type themeMsg struct {
	theme string
	err   error
}

// Waits for the next search result.
func waitForResult(ch <-chan search.Result) tea.Cmd {
	return func() tea.Msg {
		return ResultMsg{<-ch}
	}
}

// Waits for the next display.
func waitForDisplay(ch <-chan viewer.Display) tea.Cmd {
	return func() tea.Msg {
		return DisplayMsg{<-ch}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForResult(m.session.Search.Changes()),
		waitForDisplay(m.session.Viewer.Changes()),
		m.spinner.Tick,
	)
}

func (m *Model) setListSize() {
	width := m.width

	// If preview is open take half width
	if m.showing {
		width = m.width / 2
	}

	m.list.SetSize(width, m.height-3)
}

func (m *Model) setPreviewSize() {
	m.preview.Width = m.width - m.width/2 - 2
	m.preview.Height = m.height - 3
}

func (m *Model) updateSize(width, height int) {
	m.height = height
	m.width = width
}

func (m *Model) setItems(docs []*library.Document) tea.Cmd {
	return m.list.SetItems(lo.Map(docs, func(doc *library.Document, _ int) list.Item {
		return Paper{doc: doc, snippet: m.snippet(doc)}
	}))
}

// snippet returns the start of the document body if it has been fetched.
func (m *Model) snippet(doc *library.Document) string {
	if !doc.Openable() {
		return ""
	}
	body, ok := m.session.Contents.Get(doc.Path)
	if !ok {
		return ""
	}
	return formatContent(body)
}

func (m *Model) setPreview() {
	d := m.display
	var content string
	switch d.Status {
	case viewer.Loading:
		content = m.spinner.View() + " " + d.Content
	case viewer.Embedded:
		content = fmt.Sprintf("%s\n\nEmbedded document: %s", d.Document.Title, d.Resource.Path)
	case viewer.Failed, viewer.Invalid, viewer.Unsafe:
		content = ErrorStyle.Render(d.Content)
	default:
		content = d.Content
	}
	m.preview.SetContent(content)
}

// Formats the content of the file
// removes newslines and replaces tabs with single space.
func formatContent(content string) string {
	s := stripansi.Strip(content)
	s = strings.ReplaceAll(s, "\n", " ↵ ")
	return whitespace.ReplaceAllString(s, " ")
}

func (m Model) selected() *library.Document {
	if p, ok := m.list.SelectedItem().(Paper); ok {
		return p.doc
	}
	return nil
}

// The update fn for the bubbletea model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case ResultMsg:
		// a result can be published before a newer Search call below
		if msg.Generation >= m.result.Generation {
			m.result = msg.Result
			cmds = append(cmds, m.setItems(msg.Documents))
		}
		cmds = append(cmds, waitForResult(m.session.Search.Changes()))
	case DisplayMsg:
		if msg.Document != m.display.Document {
			m.preview.GotoTop()
		}
		m.display = msg.Display
		m.setPreview()
		cmds = append(cmds, waitForDisplay(m.session.Viewer.Changes()))
	case themeMsg:
		m.status = "theme: " + msg.theme
		if msg.err != nil {
			m.status += " (not saved)"
		}
	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.display.Status == viewer.Loading {
			m.setPreview()
		}
		return m, cmd
	case tea.KeyMsg:
		// Keybindings:
		// Tab - move down in the list
		// Shift+Tab - move up in the list
		// Enter - open the selected document
		// Esc - close preview
		// Ctrl+K - Preview lineup
		// Ctrl+J - Preview line down
		// Ctrl+O - Open the file in the editor
		// Ctrl+T - Toggle light and dark theme
		// Ctrl+Y - Show the shareable link
		// Ctrl+C - quit the application
		switch msg.String() {
		case "tab":
			m.list.CursorDown()
		case "shift+tab":
			m.list.CursorUp()
		case "enter":
			if doc := m.selected(); doc != nil {
				m.display = m.session.Viewer.Open(doc)
				m.showing = true
				m.preview.GotoTop()
				m.setPreview()
			}
		case "esc":
			m.showing = false
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+k":
			// not passed on, the search box deletes to end of line on ctrl+k
			m.preview.LineUp(5)
			return m, nil
		case "ctrl+j":
			m.preview.LineDown(5)
			return m, nil
		case "ctrl+t":
			session := m.session
			cmds = append(cmds, func() tea.Msg {
				theme, err := session.ToggleTheme()
				return themeMsg{theme, err}
			})
		case "ctrl+y":
			m.status = m.session.Bookmark.Link()
		case "ctrl+o":
			if path, ok := m.session.LocalPath(m.selected()); ok {
				cmds = append(cmds, m.editor.EditFile(path))
			} else {
				m.status = "not a local document"
			}
		}
	case editor.EditingFinished:
		if msg.Err != nil {
			m.status = ErrorStyle.Render(msg.Err.Error())
		}
	case tea.WindowSizeMsg:
		m.updateSize(msg.Width, msg.Height)
	}

	// Update the widgets sizes
	m.setListSize()
	m.setPreviewSize()

	// save to compare if changed
	oldValue := m.textInput.Value()

	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)

	m.editor, cmd = m.editor.Update(msg)
	cmds = append(cmds, cmd)

	// If input has changed, search for the new value. The title phase is
	// returned right away, the deep search arrives as a ResultMsg.
	if newValue := m.textInput.Value(); oldValue != newValue {
		m.session.Search.Search(newValue)
		m.result = m.session.Search.Current()
		m.status = ""
		cmds = append(cmds, m.setItems(m.result.Documents))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) statusLine() string {
	if m.status != "" {
		return StatusStyle.Render(m.status)
	}
	line := fmt.Sprintf("%d of %d", len(m.result.Documents), m.session.Index.Len())
	if m.result.State == search.TitleFiltered || m.result.State == search.DeepSearchPending {
		line += " " + m.spinner.View() + " searching contents"
	}
	return StatusStyle.Render(line)
}

// View fn for bubbletea model
func (m Model) View() string {
	listContent := lipgloss.JoinVertical(lipgloss.Left,
		ListStyle.Render(m.list.View()),
		m.statusLine(),
	)

	innerContent := listContent

	// if preview then preview takes up half the width
	if m.showing {
		innerContent = lipgloss.JoinHorizontal(lipgloss.Top,
			listContent,
			PreviewStyle.Render(m.preview.View()),
		)
	}

	// render the input box and the content
	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.textInput.View(), // render the text input
		innerContent,       // render the main content
	)
}

// Paper implements list.Item interface
type Paper struct {
	doc     *library.Document
	snippet string
}

func (p Paper) Title() string { return p.doc.Title }
func (p Paper) Description() string {
	if p.snippet != "" {
		return p.snippet
	}
	if p.doc.Path == "" {
		return p.doc.Kind.String()
	}
	return p.doc.Kind.String() + " · " + p.doc.Path
}
func (p Paper) FilterValue() string { return p.doc.FilterValue() }

// Create the list model
func create_list_model() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowFilter(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.Styles.NoItems = l.Styles.NoItems.Copy().PaddingLeft(2)
	return l
}

// Create the text input model
func create_text_input() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "title or text"
	ti.Prompt = "Search:"
	ti.PromptStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		MarginRight(1).
		MarginLeft(2).
		Padding(0, 1)
	ti.Focus()
	return ti
}

func create_spinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	return s
}
