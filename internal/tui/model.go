// Package tui is an interactive asset and checkpoint browser for the active
// project. All agent traffic goes through a session.Session, so the browser
// shares its staleness cache with every other caller of that session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/clustta/clustta-blender/internal/models"
	"github.com/clustta/clustta-blender/internal/session"
)

type focus int

const (
	focusAssets focus = iota
	focusCheckpoints
)

type action int

const (
	actionLoad action = iota
	actionRefresh
	actionSelect
	actionCreate
)

func (a action) String() string {
	switch a {
	case actionLoad:
		return "load assets"
	case actionRefresh:
		return "refresh assets"
	case actionSelect:
		return "load checkpoints"
	case actionCreate:
		return "create checkpoint"
	default:
		return "unknown"
	}
}

// doneMsg reports the end of a session call started by a tea.Cmd.
type doneMsg struct {
	action action
	err    error
}

type model struct {
	ctx     context.Context
	sess    *session.Session
	project string
	th      theme

	width  int
	height int

	focus    focus
	cursor   int // index into visible
	cpCursor int

	editing bool
	input   string

	busy      bool
	status    string
	statusErr bool

	st      session.State
	visible []int
}

func newModel(ctx context.Context, s *session.Session, projectID string) model {
	m := model{
		ctx:     ctx,
		sess:    s,
		project: projectID,
		th:      defaultTheme(),
	}
	return m.snapshot()
}

func (m model) Init() tea.Cmd {
	return m.run(actionLoad, func(ctx context.Context) error {
		return m.sess.EnsureAssetsLoaded(ctx, m.project)
	})
}

// run performs fn off the UI loop and reports it as a doneMsg.
func (m model) run(a action, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{action: a, err: fn(ctx)}
	}
}

// snapshot copies session state into the model.
func (m model) snapshot() model {
	m.st = m.sess.State()
	m.visible = m.sess.VisibleAssetIndices()
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
	if m.cpCursor >= len(m.st.Checkpoints) {
		m.cpCursor = max(len(m.st.Checkpoints)-1, 0)
	}
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch t := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = t.Width
		m.height = t.Height
		return m, nil
	case doneMsg:
		return m.onDone(t)
	case tea.KeyMsg:
		if t.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateInput(t)
		}
		return m.updateBrowse(t)
	default:
		return m, nil
	}
}

func (m model) onDone(t doneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	m = m.snapshot()
	if t.err != nil {
		m.status = fmt.Sprintf("%s: %v", t.action, t.err)
		m.statusErr = true
		return m, nil
	}

	m.statusErr = false
	switch t.action {
	case actionLoad, actionRefresh:
		m.status = fmt.Sprintf("%d assets", len(m.st.Assets))
		m.cursor = 0
		return m.selectCursor()
	case actionCreate:
		m.status = "checkpoint created"
		m.cpCursor = 0
	}
	return m, nil
}

// selectCursor makes the asset under the cursor active and loads its checkpoints.
func (m model) selectCursor() (model, tea.Cmd) {
	if len(m.visible) == 0 {
		if err := m.sess.SelectAsset(m.ctx, -1); err != nil {
			m.status, m.statusErr = err.Error(), true
		}
		return m.snapshot(), nil
	}
	if m.st.ActiveAsset == m.visible[m.cursor] {
		return m, nil
	}
	index := m.visible[m.cursor]
	m.busy = true
	m.cpCursor = 0
	return m, m.run(actionSelect, func(ctx context.Context) error {
		return m.sess.SelectAsset(ctx, index)
	})
}

func (m model) updateBrowse(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "q":
		return m, tea.Quit
	case "tab":
		if m.focus == focusAssets {
			m.focus = focusCheckpoints
		} else {
			m.focus = focusAssets
		}
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	switch k.String() {
	case "up", "k":
		return m.move(-1)
	case "down", "j":
		return m.move(1)
	case "r":
		m.busy = true
		m.status, m.statusErr = "refreshing…", false
		return m, m.run(actionRefresh, func(ctx context.Context) error {
			return m.sess.RefreshAssets(ctx, m.project)
		})
	case "f":
		next := nextOption(m.st.AssetTypeOptions, m.st.AssetTypeFilter)
		return m.applyFilters(next, m.st.StatusFilter)
	case "s":
		next := nextOption(m.st.StatusOptions, m.st.StatusFilter)
		return m.applyFilters(m.st.AssetTypeFilter, next)
	case "c":
		if m.st.ActiveAsset < 0 {
			m.status, m.statusErr = session.ErrNoAsset.Error(), true
			return m, nil
		}
		m.editing = true
		m.input = ""
		return m, nil
	}
	return m, nil
}

func (m model) move(delta int) (tea.Model, tea.Cmd) {
	if m.focus == focusCheckpoints {
		n := len(m.st.Checkpoints)
		if n == 0 {
			return m, nil
		}
		m.cpCursor = clamp(m.cpCursor+delta, 0, n-1)
		if err := m.sess.SelectCheckpoint(m.cpCursor); err != nil {
			m.status, m.statusErr = err.Error(), true
		}
		return m.snapshot(), nil
	}

	if len(m.visible) == 0 {
		return m, nil
	}
	m.cursor = clamp(m.cursor+delta, 0, len(m.visible)-1)
	return m.selectCursor()
}

func (m model) applyFilters(assetType, status string) (tea.Model, tea.Cmd) {
	if err := m.sess.SetFilters(assetType, status); err != nil {
		m.status, m.statusErr = err.Error(), true
		return m, nil
	}
	m = m.snapshot()
	m.cursor = 0
	m.status, m.statusErr = fmt.Sprintf("%d of %d assets", len(m.visible), len(m.st.Assets)), false
	return m.selectCursor()
}

func (m model) updateInput(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input = ""
		return m, nil
	case tea.KeyEnter:
		message := m.input
		if strings.TrimSpace(message) == "" {
			m.status, m.statusErr = session.ErrEmptyMessage.Error(), true
			return m, nil
		}
		m.editing = false
		m.input = ""
		m.busy = true
		m.status, m.statusErr = "creating checkpoint…", false
		return m, m.run(actionCreate, func(ctx context.Context) error {
			return m.sess.CreateCheckpoint(ctx, message, "")
		})
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeySpace:
		m.input += " "
		return m, nil
	case tea.KeyRunes:
		m.input += string(k.Runes)
		return m, nil
	}
	return m, nil
}

func (m model) View() string {
	header := m.viewHeader()

	assets := m.viewAssets()
	checkpoints := m.viewCheckpoints()
	assetPanel, cpPanel := m.th.Panel, m.th.Panel
	if m.focus == focusAssets {
		assetPanel = m.th.Focused
	} else {
		cpPanel = m.th.Focused
	}

	var body string
	if m.width >= 100 {
		half := m.width/2 - 2
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			assetPanel.Width(half).Render(assets),
			cpPanel.Width(half).Render(checkpoints),
		)
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			assetPanel.Render(assets),
			cpPanel.Render(checkpoints),
		)
	}

	return strings.Join([]string{header, body, m.viewFooter()}, "\n")
}

func (m model) viewHeader() string {
	account := m.st.Account.DisplayName()
	if account == "" {
		account = "no account"
	}
	parts := []string{account}
	if m.st.Studio.Name != "" {
		parts = append(parts, m.st.Studio.Name)
	}
	if m.st.Project.Name != "" {
		parts = append(parts, m.st.Project.Name)
	}

	line := m.th.Header.Render("CLUSTTA") + "  " + m.th.Muted.Render(strings.Join(parts, " · "))
	filters := fmt.Sprintf("Type: %s   Status: %s",
		optionLabel(m.st.AssetTypeOptions, m.st.AssetTypeFilter),
		optionLabel(m.st.StatusOptions, m.st.StatusFilter))
	return line + "\n" + m.th.Accent.Render(filters)
}

func (m model) viewAssets() string {
	lines := []string{m.th.Muted.Render("ASSETS")}
	if len(m.st.Assets) == 0 {
		return strings.Join(append(lines, m.th.Muted.Render("(no assets)")), "\n")
	}
	if len(m.visible) == 0 {
		return strings.Join(append(lines, m.th.Muted.Render("(nothing matches the filters)")), "\n")
	}

	for i, idx := range m.visible {
		a := m.st.Assets[idx]
		glyph := m.stateStyle(a.FileState).Render(a.FileState.Glyph())
		text := fmt.Sprintf("%s  %s", a.Name, m.th.Muted.Render(a.AssetType+" "+strings.ToUpper(a.Status)))
		prefix := "  "
		if i == m.cursor {
			prefix = m.th.Accent.Render("> ")
		}
		lines = append(lines, prefix+glyph+" "+text)
	}
	return strings.Join(lines, "\n")
}

func (m model) viewCheckpoints() string {
	title := "CHECKPOINTS"
	if a, ok := m.activeAsset(); ok {
		title += " · " + a.Name
	}
	lines := []string{m.th.Muted.Render(title)}

	if m.st.ActiveAsset < 0 {
		return strings.Join(append(lines, m.th.Muted.Render("(select an asset)")), "\n")
	}
	if len(m.st.Checkpoints) == 0 {
		return strings.Join(append(lines, m.th.Muted.Render("(no checkpoints yet)")), "\n")
	}
	for i, cp := range m.st.Checkpoints {
		prefix := "  "
		if m.focus == focusCheckpoints && i == m.cpCursor {
			prefix = m.th.Accent.Render("> ")
		}
		lines = append(lines, fmt.Sprintf("%s%s %-9s %s", prefix, m.th.Alert.Render(cp.ShortID()), cp.CreatedAtDisplay, cp.Message))
	}
	return strings.Join(lines, "\n")
}

func (m model) viewFooter() string {
	var lines []string
	if m.editing {
		lines = append(lines, m.th.Input.Render("Checkpoint message: "+m.input+"█"))
		lines = append(lines, m.th.Muted.Render("[Enter] Create    [Esc] Cancel"))
		if m.statusErr && m.status != "" {
			lines = append(lines, m.th.Danger.Render(m.status))
		}
		return strings.Join(lines, "\n")
	}

	if m.status != "" {
		style := m.th.Muted
		if m.statusErr {
			style = m.th.Danger
		}
		lines = append(lines, style.Render(m.status))
	}
	lines = append(lines, m.th.Muted.Render("[↑/↓] Move  [Tab] Panel  [r] Refresh  [f] Type  [s] Status  [c] Checkpoint  [q] Quit"))
	return strings.Join(lines, "\n")
}

func (m model) activeAsset() (models.Asset, bool) {
	i := m.st.ActiveAsset
	if i < 0 || i >= len(m.st.Assets) {
		return models.Asset{}, false
	}
	return m.st.Assets[i], true
}

func (m model) stateStyle(s models.FileState) lipgloss.Style {
	switch s {
	case models.FileStateNormal:
		return m.th.Success
	case models.FileStateOutdated, models.FileStateRebuildable:
		return m.th.Alert
	case models.FileStateModified:
		return m.th.Modified
	case models.FileStateMissing:
		return m.th.Danger
	}
	return m.th.Muted
}

// nextOption returns the value after current, wrapping to the first option.
func nextOption(opts []models.FilterOption, current string) string {
	if len(opts) == 0 {
		return models.FilterAll
	}
	for i, o := range opts {
		if o.Value == current {
			return opts[(i+1)%len(opts)].Value
		}
	}
	return opts[0].Value
}

func optionLabel(opts []models.FilterOption, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// Run opens the browser on projectID and blocks until the user quits.
func Run(ctx context.Context, s *session.Session, projectID string) error {
	if projectID == "" {
		return session.ErrNoProject
	}
	p := tea.NewProgram(newModel(ctx, s, projectID), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
