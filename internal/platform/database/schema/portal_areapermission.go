package schema

// PortalAreaPermissionTable represents the 'portal.areapermission' table
type PortalAreaPermissionTable struct {
	Table     string
	Area      string
	Modules   string
	ReportIDs string
	AllAccess string
	UpdatedAt string
}

// PortalAreaPermission is the schema definition for portal.areapermission
var PortalAreaPermission = PortalAreaPermissionTable{
	Table:     "portal.areapermission",
	Area:      "area",
	Modules:   "modules",
	ReportIDs: "reportids",
	AllAccess: "allaccess",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t PortalAreaPermissionTable) Columns() []string {
	return []string{
		t.Area, t.Modules, t.ReportIDs, t.AllAccess, t.UpdatedAt,
	}
}
