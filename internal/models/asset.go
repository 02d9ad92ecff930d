package models

// Asset is a trackable file in the active project.
type Asset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FilePath  string    `json:"file_path"`
	AssetType string    `json:"task_type_name"`
	Status    string    `json:"status_short_name"`
	FileState FileState `json:"file_status"`
}

// FileState is the agent's view of the working copy of an asset.
type FileState string

const (
	FileStateNormal      FileState = "normal"
	FileStateOutdated    FileState = "outdated"
	FileStateModified    FileState = "modified"
	FileStateRebuildable FileState = "rebuildable"
	FileStateMissing     FileState = "missing"
)

var fileStateGlyphs = map[FileState]string{
	FileStateNormal:      "✓",
	FileStateOutdated:    "↓",
	FileStateModified:    "✎",
	FileStateRebuildable: "↻",
	FileStateMissing:     "!",
}

// Glyph returns a one-character marker for list views. Unknown states get "○".
func (s FileState) Glyph() string {
	if g, ok := fileStateGlyphs[s]; ok {
		return g
	}
	return "○"
}
