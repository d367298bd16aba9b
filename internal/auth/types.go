package auth

import "time"

// User is a registered account. Reads and writes go through UserStore; the
// password hash never appears in API responses.
type User struct {
	ID           int
	Username     string
	PasswordHash string
	Email        string
	Phone        string
	CreatedAt    time.Time
}

// Principal is the authenticated identity attached to a request after the
// bearer token has been verified. It is created once per request by the
// authentication middleware, carried in the request context and never
// persisted.
type Principal struct {
	ID       int
	Username string
}
