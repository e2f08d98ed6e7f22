package domain

// SessionUser is the user projection embedded in a ClientSession.
type SessionUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

// ClientSession is the authenticated identity handed to the caller after a
// successful verification. ID is the consumed LoginCode's record id,
// repurposed as a login-event reference. The session is held entirely by the
// client; the server keeps no session table.
type ClientSession struct {
	ID   string      `json:"id"`
	User SessionUser `json:"user"`
}
