package models

// FilterAll is the sentinel option value that matches every asset.
const FilterAll = "ALL"

// FilterOption is one entry of a filter selector.
type FilterOption struct {
	Value string
	Label string
}
