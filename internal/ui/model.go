package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/assaysplit/internal/converter"
	"github.com/nconklindev/assaysplit/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateStaging state = iota
	stateProcessing
	stateResults
	stateError
)

type Model struct {
	state        state
	filepicker   filepicker.Model
	staged       []string
	grouper      *converter.Grouper
	sink         converter.Sink
	result       *types.ProcessResult
	cursor       int
	exported     []string
	exportErr    error
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan processResultMsg
}

type processResultMsg struct {
	result *types.ProcessResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel() Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".xlsx", ".xls"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#5EEAD4"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#5EEAD4"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#2DD4BF")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	prog := progress.New(progress.WithGradient("#2DD4BF", "#5EEAD4"))

	cwd, _ := os.Getwd()

	return Model{
		state:      stateStaging,
		filepicker: fp,
		grouper:    &converter.Grouper{},
		sink:       converter.DirSink{Dir: cwd},
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for title, staged file list, and help text
		height := msg.Height - 16
		if height < 5 {
			height = 5
		}

		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateStaging:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "c":
				m.staged = nil
				return m, nil
			case "p":
				if len(m.staged) > 0 {
					m.state = stateProcessing
					return m.processBatch()
				}
				return m, nil
			}

		case stateProcessing:
			// No cancellation mid-batch; only allow quitting the program.
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case stateResults:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.result.Order)-1 {
					m.cursor++
				}
			case "enter":
				if m.cursor < len(m.result.Order) {
					m.exportAssay(m.result.Order[m.cursor])
				}
			case "a":
				m.exportAll()
			case "n":
				m.staged = nil
				m.result = nil
				m.exported = nil
				m.exportErr = nil
				m.cursor = 0
				m.state = stateStaging
				return m, nil
			}

		case stateError:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "enter", "esc":
				m.err = nil
				m.state = stateStaging
				return m, nil
			}
		}

	case processResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.cursor = 0
		m.exported = nil
		m.exportErr = nil
		m.state = stateResults
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	// Handle filepicker updates
	if m.state == stateStaging {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.stageFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m *Model) stageFile(path string) {
	for _, staged := range m.staged {
		if staged == path {
			return
		}
	}
	m.staged = append(m.staged, path)
}

func (m Model) processBatch() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan processResultMsg, 1)

	cmd := tea.Batch(
		func() tea.Msg {
			// Capture for the goroutine
			progressChan := m.progressChan
			resultChan := m.resultChan
			staged := m.staged
			grouper := m.grouper

			go func() {
				result, err := grouper.Process(staged, progressChan)

				resultChan <- processResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		waitForProgress(m.progressChan, m.resultChan),
		m.progress.Init(),
	)

	return m, cmd
}

func (m *Model) exportAssay(code string) {
	name, err := converter.ExportAssay(m.sink, m.result, code)
	if err != nil {
		m.exportErr = err
		return
	}
	m.exportErr = nil
	m.exported = append(m.exported, name)
}

func (m *Model) exportAll() {
	written, err := converter.ExportAll(m.sink, m.result)
	m.exportErr = err
	m.exported = append(m.exported, written...)
}

func waitForProgress(progressChan chan float64, resultChan chan processResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return res
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateStaging:
		return m.viewStaging()
	case stateProcessing:
		return m.viewProcessing()
	case stateResults:
		return m.viewResults()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewStaging() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🧪 Assaysplit - Lab Export Splitter"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Stage one or more XLSX/XLS lab exports, then process them into per-assay CSVs"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n")

	if len(m.staged) > 0 {
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Staged %d file(s):", len(m.staged))))
		s.WriteString("\n")
		for _, path := range m.staged {
			s.WriteString("  • " + filepath.Base(path))
			s.WriteString("\n")
		}
	} else {
		s.WriteString(SubtitleStyle.Render("No files staged yet"))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("enter: stage file • p: process • c: clear staged • q: quit"))

	return s.String()
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🧪 Processing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Classifying samples from %d file(s)...", len(m.staged)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewResults() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Processing Complete"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Files processed: %d • Samples matched: %d\n", m.result.FilesProcessed, m.result.RowsMatched))

	missing, noMatch := m.result.SkipCounts()
	if missing > 0 || noMatch > 0 {
		s.WriteString(SubtitleStyle.Render(fmt.Sprintf("Skipped rows: %d missing Sample Num/Test Name, %d unrecognized test name", missing, noMatch)))
		s.WriteString("\n")
	}

	for _, fe := range m.result.FileErrors {
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("✗ %s: %v", filepath.Base(fe.File), fe.Err)))
		s.WriteString("\n")
	}

	s.WriteString("\n")

	if len(m.result.Order) == 0 {
		s.WriteString("No rows matched any assay.\n")
	} else {
		for i, code := range m.result.Order {
			cursor := " "
			if m.cursor == i {
				cursor = ">"
			}

			line := fmt.Sprintf("%s %s — %d sample(s) → %s", cursor, code, len(m.result.Buckets[code]), converter.Filename(code))
			if m.cursor == i {
				line = SelectedStyle.Render(line)
			}

			s.WriteString(line)
			s.WriteString("\n")
		}
	}

	if len(m.exported) > 0 {
		s.WriteString("\n")
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Wrote: %s", strings.Join(m.exported, ", "))))
		s.WriteString("\n")
	}
	if m.exportErr != nil {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Export failed: %v", m.exportErr)))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: export assay • a: export all • n: new run • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("enter: back to staging • q: quit"))

	return BoxStyle.Render(s.String())
}
