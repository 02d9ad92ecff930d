// Package agent implements the HTTP client for the local Clustta Agent.
package agent

// Default address of the local agent. The agent only binds to loopback.
const DefaultBaseURL = "http://127.0.0.1:1173"

// DefaultAssetExtension limits asset listings to Blender files.
const DefaultAssetExtension = ".blend"

// SwitchAccountRequest selects the agent's active account.
type SwitchAccountRequest struct {
	ID string `json:"id"`
}

// SwitchStudioRequest selects the agent's active studio.
type SwitchStudioRequest struct {
	Name string `json:"name"`
}

// SwitchProjectRequest selects the agent's active project.
type SwitchProjectRequest struct {
	URI string `json:"uri"`
}

// CreateCheckpointRequest saves the file at FilePath as a new checkpoint.
type CreateCheckpointRequest struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
}

// AssetQuery narrows an asset listing.
type AssetQuery struct {
	Extension string // defaults to DefaultAssetExtension
	Assignee  string // optional
}

// ErrorResponse is the structured error body the agent returns on failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
