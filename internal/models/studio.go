package models

// Studio represents an organizational workspace. The name doubles as its id.
type Studio struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Project represents a version-controlled project. The uri doubles as its id.
type Project struct {
	URI              string `json:"uri"`
	Name             string `json:"name"`
	WorkingDirectory string `json:"working_directory,omitempty"`
}
