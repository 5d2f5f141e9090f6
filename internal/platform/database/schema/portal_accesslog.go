package schema

// PortalAccessLogTable represents the 'portal.accesslog' table
type PortalAccessLogTable struct {
	Table     string
	ID        string
	UserID    string
	Action    string
	Page      string
	CreatedAt string
}

// PortalAccessLog is the schema definition for portal.accesslog
var PortalAccessLog = PortalAccessLogTable{
	Table:     "portal.accesslog",
	ID:        "id",
	UserID:    "userid",
	Action:    "action",
	Page:      "page",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t PortalAccessLogTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Action, t.Page, t.CreatedAt,
	}
}
