package model

// SessionUser is the identity embedded in a session token and returned
// by the auth endpoints.  It is never persisted.
//
// Fields:
//  Username – login name of the administrator.
//  Name     – display name.
//  Role     – role label shown in the admin UI.
type SessionUser struct {
    Username string `json:"username"` // login name
    Name     string `json:"name"`     // display name
    Role     string `json:"role"`     // role label
}
