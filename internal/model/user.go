package model

import "time"

// DirectoryUser is a record of the remote Users sheet, the directory the
// identity resolver consults for role claims.
type DirectoryUser struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is an authenticated principal as reported by the identity
// provider.
type Session struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// Valid reports whether the session carries an identity.
func (s Session) Valid() bool {
	return s.UID != "" && s.Email != ""
}
