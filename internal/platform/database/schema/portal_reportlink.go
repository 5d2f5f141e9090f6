package schema

// PortalReportLinkTable represents the 'portal.reportlink' table
type PortalReportLinkTable struct {
	Table       string
	ID          string
	Title       string
	Description string
	URL         string
	Icon        string
	SortOrder   string
	IsActive    string
	CreatedAt   string
	UpdatedAt   string
}

// PortalReportLink is the schema definition for portal.reportlink
var PortalReportLink = PortalReportLinkTable{
	Table:       "portal.reportlink",
	ID:          "id",
	Title:       "title",
	Description: "description",
	URL:         "url",
	Icon:        "icon",
	SortOrder:   "sortorder",
	IsActive:    "isactive",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t PortalReportLinkTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Description, t.URL, t.Icon, t.SortOrder, t.IsActive, t.CreatedAt, t.UpdatedAt,
	}
}
