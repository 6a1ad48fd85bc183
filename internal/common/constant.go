package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access
// token on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// TokenAudienceUser is the audience claim stamped into every token this
// service issues.
const TokenAudienceUser = "user"
