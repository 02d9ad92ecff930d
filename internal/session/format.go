package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/clustta/clustta-blender/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	allAssetTypesLabel = "All Asset Types"
	allStatusesLabel   = "All Statuses"

	displayDateLayout = "2 Jan 06"
)

// Layouts accepted besides RFC 3339, oldest agents first.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// FormatTimestamp converts an ISO 8601 timestamp to short display form
// ("4 Jan 26"). The date is taken in the timestamp's own offset. Input that
// does not parse is returned unchanged.
func FormatTimestamp(s string) string {
	if s == "" {
		return ""
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		parsed := false
		for _, layout := range timestampLayouts {
			if t, err = time.Parse(layout, s); err == nil {
				parsed = true
				break
			}
		}
		if !parsed {
			return s
		}
	}
	return t.Format(displayDateLayout)
}

// FilterOptions returns the FilterAll sentinel followed by the sorted distinct
// non-empty values, each labelled by label.
func FilterOptions(values []string, allLabel string, label func(string) string) []models.FilterOption {
	seen := make(map[string]struct{}, len(values))
	var distinct []string
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		distinct = append(distinct, v)
	}
	sort.Strings(distinct)

	opts := make([]models.FilterOption, 0, len(distinct)+1)
	opts = append(opts, models.FilterOption{Value: models.FilterAll, Label: allLabel})
	for _, v := range distinct {
		opts = append(opts, models.FilterOption{Value: v, Label: label(v)})
	}
	return opts
}

// AssetTypeOptions derives the asset-type filter from assets.
func AssetTypeOptions(assets []models.Asset) []models.FilterOption {
	values := make([]string, len(assets))
	for i, a := range assets {
		values[i] = a.AssetType
	}
	title := cases.Title(language.English)
	return FilterOptions(values, allAssetTypesLabel, title.String)
}

// StatusOptions derives the status filter from assets.
func StatusOptions(assets []models.Asset) []models.FilterOption {
	values := make([]string, len(assets))
	for i, a := range assets {
		values[i] = a.Status
	}
	return FilterOptions(values, allStatusesLabel, strings.ToUpper)
}

// matches reports whether a passes both filter values. FilterAll and the
// empty string match everything.
func matches(a models.Asset, assetType, status string) bool {
	if assetType != "" && assetType != models.FilterAll && a.AssetType != assetType {
		return false
	}
	if status != "" && status != models.FilterAll && a.Status != status {
		return false
	}
	return true
}

// SetFilters selects filter values. Each must be one of the current options.
func (s *Session) SetFilters(assetType, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if assetType == "" {
		assetType = models.FilterAll
	}
	if status == "" {
		status = models.FilterAll
	}
	if !hasOption(s.state.AssetTypeOptions, assetType) {
		return fmt.Errorf("unknown asset type filter '%s'", assetType)
	}
	if !hasOption(s.state.StatusOptions, status) {
		return fmt.Errorf("unknown status filter '%s'", status)
	}
	s.state.AssetTypeFilter = assetType
	s.state.StatusFilter = status
	return nil
}

// VisibleAssetIndices returns the indices into State.Assets that pass the
// current filters.
func (s *Session) VisibleAssetIndices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var idx []int
	for i, a := range s.state.Assets {
		if matches(a, s.state.AssetTypeFilter, s.state.StatusFilter) {
			idx = append(idx, i)
		}
	}
	return idx
}

// rebuildFilterOptionsLocked recomputes both option lists from the asset list.
// Selected filters that no longer exist fall back to FilterAll.
func (s *Session) rebuildFilterOptionsLocked() {
	s.state.AssetTypeOptions = AssetTypeOptions(s.state.Assets)
	s.state.StatusOptions = StatusOptions(s.state.Assets)

	if !hasOption(s.state.AssetTypeOptions, s.state.AssetTypeFilter) {
		s.state.AssetTypeFilter = models.FilterAll
	}
	if !hasOption(s.state.StatusOptions, s.state.StatusFilter) {
		s.state.StatusFilter = models.FilterAll
	}
}

func hasOption(opts []models.FilterOption, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}
