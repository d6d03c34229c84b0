package common

// AuthorizationHeaderName is the HTTP header carrying the bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token value in the Authorization header.
const BearerPrefix = "Bearer "

// TokenQueryParamName is the fallback query parameter for clients that
// cannot set headers (inline media fetches).
const TokenQueryParamName = "token"
