package models

import "time"

// Session anchors the validity window of one authenticated client context.
// Access and refresh tokens are derived from it and never stored; deleting
// the session invalidates everything minted against it.
//
// TokenVersion increases by one on every refresh-token rotation. A refresh
// token carrying a version below the current one has been rotated out and
// is rejected even though its signature is still valid.
type Session struct {
	ID           string
	UserID       string
	UserAgent    string
	TokenVersion int64
	ExpiredAt    time.Time
	CreatedAt    time.Time
}
