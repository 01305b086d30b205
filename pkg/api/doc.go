// Package api exposes the portal's authentication and reference-data
// operations over HTTP.
//
// All responses use a uniform envelope:
//
//	{"success": true, "data": {...}}
//	{"success": false, "error": "message"}
//
// Routes:
//
//	POST /api/v1/auth/signup                  provision an account
//	POST /api/v1/auth/signin                  authenticate (portal field enforces fencing)
//	POST /api/v1/auth/signout                 end the session
//	GET  /api/v1/auth/me                      current session state
//	PUT  /api/v1/auth/password                complete a forced password reset
//	POST /api/v1/auth/password-reset-request  send a reset email
//	GET  /api/v1/geography/countries          cached country list
//	GET  /api/v1/geography/regions            regions for a country
//	GET  /api/v1/geography/hospitals          hospitals for a region
package api
