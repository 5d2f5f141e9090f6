package schema

// PortalVisitTable represents the 'portal.visit' table
type PortalVisitTable struct {
	Table        string
	ID           string
	SupervisorID string
	Location     string
	VisitDate    string
	Notes        string
	Signature    string
	Status       string
	CreatedAt    string
	UpdatedAt    string
}

// PortalVisit is the schema definition for portal.visit
var PortalVisit = PortalVisitTable{
	Table:        "portal.visit",
	ID:           "id",
	SupervisorID: "supervisorid",
	Location:     "location",
	VisitDate:    "visitdate",
	Notes:        "notes",
	Signature:    "signature",
	Status:       "status",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// Columns returns all standard column names
func (t PortalVisitTable) Columns() []string {
	return []string{
		t.ID, t.SupervisorID, t.Location, t.VisitDate, t.Notes, t.Signature, t.Status, t.CreatedAt, t.UpdatedAt,
	}
}
