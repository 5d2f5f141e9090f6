package schema

// PortalUserRoleTable represents the 'portal.userrole' table
type PortalUserRoleTable struct {
	Table     string
	ID        string
	UserID    string
	Role      string
	CreatedAt string
}

// PortalUserRole is the schema definition for portal.userrole
var PortalUserRole = PortalUserRoleTable{
	Table:     "portal.userrole",
	ID:        "id",
	UserID:    "userid",
	Role:      "role",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t PortalUserRoleTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Role, t.CreatedAt,
	}
}
