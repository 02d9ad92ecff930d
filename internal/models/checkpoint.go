package models

// Checkpoint is a saved revision of an asset.
type Checkpoint struct {
	ID        string `json:"id"`
	Message   string `json:"comment"`
	CreatedAt string `json:"created_at"`
	AuthorID  string `json:"author_id"`

	// CreatedAtDisplay is CreatedAt in short display form. Not part of the wire format.
	CreatedAtDisplay string `json:"-"`
}

// ShortID returns a shortened checkpoint ID (first 8 characters)
func (c *Checkpoint) ShortID() string {
	if len(c.ID) > 8 {
		return c.ID[:8]
	}
	return c.ID
}
