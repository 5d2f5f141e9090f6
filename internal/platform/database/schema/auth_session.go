package schema

// AuthSessionTable represents the 'auth.session' table
type AuthSessionTable struct {
	Table      string
	ID         string
	IdentityID string
	TokenHash  string
	UserAgent  string
	IPAddress  string
	IsRevoked  string
	ExpiresAt  string
	CreatedAt  string
}

// AuthSession is the schema definition for auth.session
var AuthSession = AuthSessionTable{
	Table:      "auth.session",
	ID:         "id",
	IdentityID: "identityid",
	TokenHash:  "tokenhash",
	UserAgent:  "useragent",
	IPAddress:  "ipaddress",
	IsRevoked:  "isrevoked",
	ExpiresAt:  "expiresat",
	CreatedAt:  "createdat",
}

// Columns returns all standard column names
func (t AuthSessionTable) Columns() []string {
	return []string{
		t.ID, t.IdentityID, t.TokenHash, t.UserAgent, t.IPAddress, t.IsRevoked, t.ExpiresAt, t.CreatedAt,
	}
}
