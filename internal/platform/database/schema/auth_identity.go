package schema

// AuthIdentityTable represents the 'auth.identity' table
type AuthIdentityTable struct {
	Table        string
	ID           string
	Login        string
	PasswordHash string
	CreatedAt    string
	UpdatedAt    string
}

// AuthIdentity is the schema definition for auth.identity
var AuthIdentity = AuthIdentityTable{
	Table:        "auth.identity",
	ID:           "id",
	Login:        "login",
	PasswordHash: "passwordhash",
	CreatedAt:    "createdat",
	UpdatedAt:    "updatedat",
}

// Columns returns all standard column names
func (t AuthIdentityTable) Columns() []string {
	return []string{
		t.ID, t.Login, t.PasswordHash, t.CreatedAt, t.UpdatedAt,
	}
}
