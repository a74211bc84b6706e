// Package browser is a read-only terminal view of the last build: modules
// with their types, and the problems found while building.
package browser

import (
	"fmt"
	"strings"
	"time"

	"duml/internal/core/app"
	"duml/internal/engine/graph"
	"duml/internal/engine/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type panel int

const (
	panelModules panel = iota
	panelIssues
)

type item struct {
	title, desc string
	module      string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + " " + i.desc }

// updateMsg carries a finished build into the program.
type updateMsg struct {
	tree        *model.Tree
	graph       *graph.Graph
	cycles      [][]string
	failed      []app.FileError
	diagnostics int
	files       int
}

func newUpdateMsg(res *app.BuildResult) updateMsg {
	return updateMsg{
		tree:        res.Tree,
		graph:       res.Graph,
		cycles:      res.Cycles,
		failed:      res.Failed,
		diagnostics: len(res.Diagnostics),
		files:       len(res.Files),
	}
}

type Model struct {
	moduleList list.Model
	issueList  list.Model
	mode       panel

	tree        *model.Tree
	graph       *graph.Graph
	cycles      [][]string
	failed      []app.FileError
	diagnostics int
	files       int
	lastUpdate  time.Time

	details     string
	showDetails bool
}

func New() Model {
	modules := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	modules.Title = "Modules"
	modules.SetShowStatusBar(false)
	modules.SetFilteringEnabled(true)

	issues := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	issues.Title = "Issues"
	issues.SetShowStatusBar(false)
	issues.SetFilteringEnabled(true)

	return Model{
		moduleList: modules,
		issueList:  issues,
		lastUpdate: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.moduleList.SetSize(msg.Width-h, msg.Height-v-4)
		m.issueList.SetSize(msg.Width-h, msg.Height-v-4)
		return m, nil
	case updateMsg:
		return m.apply(msg), nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.activeList().FilterState() == list.Filtering
	if !filtering {
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.mode == panelModules {
				m.mode = panelIssues
			} else {
				m.mode = panelModules
			}
			m.showDetails = false
			return m, nil
		case "enter":
			if m.mode == panelModules {
				return m.openDetails(), nil
			}
		case "esc", "backspace":
			if m.showDetails {
				m.showDetails = false
				return m, nil
			}
		}
	} else if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	if m.mode == panelModules {
		m.moduleList, cmd = m.moduleList.Update(msg)
	} else {
		m.issueList, cmd = m.issueList.Update(msg)
	}
	return m, cmd
}

func (m Model) activeList() list.Model {
	if m.mode == panelModules {
		return m.moduleList
	}
	return m.issueList
}

func (m Model) apply(msg updateMsg) Model {
	m.tree = msg.tree
	m.graph = msg.graph
	m.cycles = msg.cycles
	m.failed = msg.failed
	m.diagnostics = msg.diagnostics
	m.files = msg.files
	m.lastUpdate = time.Now()
	m.showDetails = false

	var metrics map[string]graph.ModuleMetrics
	if m.graph != nil {
		metrics = m.graph.Metrics()
	}
	var modules []list.Item
	if m.tree != nil {
		for _, mod := range m.tree.Modules() {
			mm := metrics[mod.Name]
			modules = append(modules, item{
				title:  mod.Name,
				desc:   fmt.Sprintf("%d types, %d imports, fan-in %d, importance %.1f", len(mod.Types), len(mod.Imports), mm.FanIn, mm.Importance),
				module: mod.Name,
			})
		}
	}
	m.moduleList.SetItems(modules)

	var issues []list.Item
	for _, c := range m.cycles {
		issues = append(issues, item{title: "Import Cycle", desc: strings.Join(append(append([]string(nil), c...), c[0]), " -> ")})
	}
	for _, f := range m.failed {
		issues = append(issues, item{title: "Skipped File", desc: fmt.Sprintf("%s: %v", f.File, f.Err)})
	}
	if m.graph != nil {
		for _, a := range m.graph.Ambiguities() {
			issues = append(issues, item{
				title: "Ambiguous Type",
				desc:  fmt.Sprintf("%s in %s matches %s", a.Name, model.QualifiedName(a.From), strings.Join(model.QualifiedNames(a.Candidates), ", ")),
			})
		}
	}
	m.issueList.SetItems(issues)
	return m
}

func (m Model) openDetails() Model {
	if m.tree == nil {
		return m
	}
	selected, ok := m.moduleList.SelectedItem().(item)
	if !ok {
		return m
	}
	mod := m.tree.Module(selected.module)
	if mod == nil {
		return m
	}
	m.details = moduleDetails(mod)
	m.showDetails = true
	return m
}

func (m Model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files | %d modules | %d diagnostics",
		m.lastUpdate.Format("15:04:05"), m.files, len(m.moduleList.Items()), m.diagnostics))

	var summary string
	if len(m.cycles) == 0 && len(m.failed) == 0 {
		summary = successStyle.Render("No cycles, no skipped files")
	} else {
		summary = fmt.Sprintf("%s | %s",
			cycleStyle.Render(fmt.Sprintf("%d Cycles", len(m.cycles))),
			warnStyle.Render(fmt.Sprintf("%d Skipped", len(m.failed))))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("duml declaration browser"), status, summary)
	body := m.activeList().View()
	if m.showDetails {
		body = detailStyle.Render(m.details)
	}
	help := statusStyle.Render("tab: switch panel | enter: details | esc: back | /: filter | q: quit")
	return docStyle.Render(header + "\n" + body + "\n" + help)
}

// Run shows the browser until the user quits. Builds finished while it runs
// (watch mode) refresh the view.
func Run(a *app.App) error {
	p := tea.NewProgram(New(), tea.WithAltScreen())

	a.SetUpdateHandler(func(res *app.BuildResult) {
		p.Send(newUpdateMsg(res))
	})
	defer a.SetUpdateHandler(nil)

	if res := a.Last(); res != nil {
		go p.Send(newUpdateMsg(res))
	}

	_, err := p.Run()
	return err
}
