package sheet

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the host serving spreadsheet exports.
const DefaultBaseURL = "https://docs.google.com"

// Source identifies one tab of a spreadsheet.
type Source struct {
	SpreadsheetID string `json:"spreadsheet_id" yaml:"spreadsheet_id"`
	TabID         string `json:"tab_id" yaml:"tab_id"`
}

func (s Source) String() string {
	return fmt.Sprintf("%s/%s", s.SpreadsheetID, s.TabID)
}

// Valid reports whether both identifiers are set.
func (s Source) Valid() bool {
	return s.SpreadsheetID != "" && s.TabID != ""
}

// URL returns the CSV export address of the tab under baseURL.
func (s Source) URL(baseURL string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	q := url.Values{}
	q.Set("format", "csv")
	q.Set("gid", s.TabID)
	return fmt.Sprintf(
		"%s/spreadsheets/d/%s/export?%s",
		strings.TrimRight(baseURL, "/"),
		url.PathEscape(s.SpreadsheetID),
		q.Encode(),
	)
}
