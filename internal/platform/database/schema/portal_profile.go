package schema

// PortalProfileTable represents the 'portal.profile' table
type PortalProfileTable struct {
	Table              string
	ID                 string
	UserID             string
	RegistrationCode   string
	Name               string
	Title              string
	Email              string
	Company            string
	Phone              string
	Area               string
	Status             string
	MustChangePassword string
	CreatedAt          string
	UpdatedAt          string
}

// PortalProfile is the schema definition for portal.profile
var PortalProfile = PortalProfileTable{
	Table:              "portal.profile",
	ID:                 "id",
	UserID:             "userid",
	RegistrationCode:   "registrationcode",
	Name:               "name",
	Title:              "title",
	Email:              "email",
	Company:            "company",
	Phone:              "phone",
	Area:               "area",
	Status:             "status",
	MustChangePassword: "mustchangepassword",
	CreatedAt:          "createdat",
	UpdatedAt:          "updatedat",
}

// Columns returns all standard column names
func (t PortalProfileTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.RegistrationCode, t.Name, t.Title, t.Email, t.Company, t.Phone, t.Area, t.Status, t.MustChangePassword, t.CreatedAt, t.UpdatedAt,
	}
}
