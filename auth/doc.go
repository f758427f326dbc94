// Package auth authenticates operators and gates the healing endpoints by role.
//
// Operators present either a bearer JWT (HMAC-signed) or an API key. A
// Policy maps each operator action, such as confirming a prompted fix, to the
// roles allowed to perform it. Middleware ties both together for net/http.
package auth
