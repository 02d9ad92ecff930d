package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/clustta/clustta-blender/internal/agent"
	"github.com/clustta/clustta-blender/internal/agent/agenttest"
	"github.com/clustta/clustta-blender/internal/models"
	"github.com/clustta/clustta-blender/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shortFilm = "clustta://aurora/short-film"

func newTestModel(t *testing.T) (model, *agenttest.Agent) {
	t.Helper()

	fake := agenttest.New()
	fake.ActiveAccount = "acc-1"
	fake.ActiveStudio = "Aurora"
	fake.ActiveProject = shortFilm
	fake.SetAssets(shortFilm,
		models.Asset{ID: "a1", Name: "hero", FilePath: "chars/hero.blend", AssetType: "Modeling", Status: "wip", FileState: models.FileStateNormal},
		models.Asset{ID: "a2", Name: "hero_rig", FilePath: "chars/hero_rig.blend", AssetType: "Rigging", Status: "review", FileState: models.FileStateOutdated},
		models.Asset{ID: "a3", Name: "prop", FilePath: "props/prop.blend", AssetType: "Modeling", Status: "done", FileState: models.FileStateMissing},
	)
	fake.SetCheckpoints("a1",
		models.Checkpoint{ID: "cp-2-aaaaaaaa", Message: "blockout", CreatedAt: "2026-01-04T10:00:00Z"},
		models.Checkpoint{ID: "cp-1-bbbbbbbb", Message: "init", CreatedAt: "2026-01-02T10:00:00Z"},
	)

	client := agent.NewHTTPClient(fake.Start(t), agent.WithTimeout(2*time.Second))
	s := session.New(client)
	require.NoError(t, s.Connect(context.Background()))

	m := newModel(context.Background(), s, shortFilm)
	return drive(t, m, m.Init()), fake
}

// drive feeds cmd results back into the model until no command is left.
func drive(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(tea.QuitMsg); ok {
			return m
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(model)
	}
	return m
}

func press(t *testing.T, m model, keys ...tea.KeyMsg) model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(k)
		m = drive(t, next.(model), cmd)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInit_LoadsAssetsAndSelectsFirst(t *testing.T) {
	m, fake := newTestModel(t)

	assert.Len(t, m.st.Assets, 3)
	assert.Equal(t, 0, m.st.ActiveAsset)
	assert.Len(t, m.st.Checkpoints, 2)
	assert.Equal(t, "4 Jan 26", m.st.Checkpoints[0].CreatedAtDisplay)
	assert.Equal(t, 1, fake.Calls("GET /assets"))
	assert.Equal(t, 1, fake.Calls("GET /assets/{id}/checkpoints"))
	assert.False(t, m.busy)
}

func TestMove_SelectsAssetAndLoadsCheckpoints(t *testing.T) {
	m, fake := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, 1, m.st.ActiveAsset)
	assert.Empty(t, m.st.Checkpoints)
	assert.Equal(t, 2, fake.Calls("GET /assets/{id}/checkpoints"))

	// Moving past the end stays on the last asset without another fetch.
	m = press(t, m, runes("j"), runes("j"), runes("j"))
	assert.Equal(t, 2, m.cursor)
	assert.Equal(t, 3, fake.Calls("GET /assets/{id}/checkpoints"))
	assert.Equal(t, 1, fake.Calls("GET /assets"))
}

func TestFilterCycle(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, runes("f"))
	assert.Equal(t, "Modeling", m.st.AssetTypeFilter)
	assert.Equal(t, []int{0, 2}, m.visible)

	m = press(t, m, runes("f"))
	assert.Equal(t, "Rigging", m.st.AssetTypeFilter)
	assert.Equal(t, []int{1}, m.visible)
	assert.Equal(t, 1, m.st.ActiveAsset)

	m = press(t, m, runes("f"))
	assert.Equal(t, models.FilterAll, m.st.AssetTypeFilter)
	assert.Len(t, m.visible, 3)

	m = press(t, m, runes("s"))
	assert.Equal(t, "done", m.st.StatusFilter)
	assert.Equal(t, []int{2}, m.visible)
}

func TestRefresh(t *testing.T) {
	m, fake := newTestModel(t)

	fake.SetAssets(shortFilm, models.Asset{ID: "a9", Name: "set", FilePath: "set.blend", AssetType: "Layout", Status: "wip"})
	m = press(t, m, runes("r"))

	require.Len(t, m.st.Assets, 1)
	assert.Equal(t, "a9", m.st.Assets[0].ID)
	assert.Equal(t, 2, fake.Calls("GET /assets"))
	assert.Equal(t, 0, m.st.ActiveAsset)
	assert.Equal(t, "1 assets", m.status)
}

func TestRefresh_Error(t *testing.T) {
	m, fake := newTestModel(t)

	fake.Fail("GET /assets", 500)
	m = press(t, m, runes("r"))

	assert.True(t, m.statusErr)
	assert.Contains(t, m.status, "refresh assets")
	assert.Contains(t, m.status, "HTTP 500")
	assert.Empty(t, m.st.Assets)
}

func TestCreateCheckpoint(t *testing.T) {
	m, fake := newTestModel(t)

	m = press(t, m, runes("c"))
	require.True(t, m.editing)

	m = press(t, m, runes("lighting"), tea.KeyMsg{Type: tea.KeySpace}, runes("passx"), tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.editing)
	assert.False(t, m.statusErr)
	assert.Equal(t, "checkpoint created", m.status)
	require.Len(t, m.st.Checkpoints, 3)
	assert.Equal(t, "lighting pass", m.st.Checkpoints[0].Message)
	assert.Equal(t, 1, fake.Calls("POST /projects/{pid}/assets/{aid}/checkpoints"))
}

func TestCreateCheckpoint_EmptyMessage(t *testing.T) {
	m, fake := newTestModel(t)

	m = press(t, m, runes("c"), tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, m.editing)
	assert.True(t, m.statusErr)
	assert.Equal(t, session.ErrEmptyMessage.Error(), m.status)
	assert.Equal(t, 0, fake.Calls("POST /projects/{pid}/assets/{aid}/checkpoints"))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.editing)
}

func TestCheckpointFocus(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, focusCheckpoints, m.focus)
	assert.Equal(t, 1, m.cpCursor)
	assert.Equal(t, 1, m.st.ActiveCheckpoint)
	assert.Equal(t, 0, m.st.ActiveAsset)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// While typing a message, q is text.
	m = press(t, m, runes("c"))
	next, cmd := m.Update(runes("q"))
	assert.Nil(t, cmd)
	assert.Equal(t, "q", next.(model).input)
}

func TestView(t *testing.T) {
	m, _ := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := next.(model).View()

	assert.Contains(t, view, "CLUSTTA")
	assert.Contains(t, view, "Ada Lovelace · Aurora · Short Film")
	assert.Contains(t, view, "Type: All Asset Types")
	assert.Contains(t, view, "hero_rig")
	assert.Contains(t, view, "blockout")
	assert.Contains(t, view, "4 Jan 26")
}

func TestNextOption(t *testing.T) {
	opts := []models.FilterOption{{Value: "ALL"}, {Value: "a"}, {Value: "b"}}

	assert.Equal(t, "a", nextOption(opts, "ALL"))
	assert.Equal(t, "ALL", nextOption(opts, "b"))
	assert.Equal(t, "ALL", nextOption(opts, "gone"))
	assert.Equal(t, "ALL", nextOption(nil, "x"))
}

func TestRun_RequiresProject(t *testing.T) {
	assert.ErrorIs(t, Run(context.Background(), nil, ""), session.ErrNoProject)
}
