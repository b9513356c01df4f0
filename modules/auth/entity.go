package auth

import "time"

// Session is the persisted login session: the upstream store-API token
// plus bookkeeping. At most one session exists at a time; it survives
// process restarts so the user stays logged in.
type Session struct {
	ID            string    `gorm:"primarykey;size:36" json:"id"`
	Username      string    `gorm:"size:100;not null" json:"username"`
	UpstreamToken string    `gorm:"size:512;not null" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the table name for Session model.
func (Session) TableName() string {
	return "sessions"
}

// Credential caches a bcrypt hash of the last successful login together
// with the upstream token it produced, enabling re-login while the
// remote endpoint is unreachable.
type Credential struct {
	Username      string    `gorm:"primarykey;size:100" json:"username"`
	PasswordHash  string    `gorm:"size:100;not null" json:"-"`
	UpstreamToken string    `gorm:"size:512;not null" json:"-"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the table name for Credential model.
func (Credential) TableName() string {
	return "credentials"
}
