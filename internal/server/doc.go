// Package server exposes the analysis pipeline over HTTP.
//
// Routes:
//   - GET  /            HTML form
//   - POST /analyze     form submit, renders the result page
//   - POST /api/analyze JSON request {"url": ...}, JSON report response
//   - GET  /api/status  dependency and directory checks
//
// When an API token is configured the /api routes require
// "Authorization: Bearer <token>" and the HTML form is disabled, since a
// browser form cannot carry the token.
package server
