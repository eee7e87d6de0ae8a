// Package client talks to the backend over its HTTP API.
//
// Every function takes a POST with a JSON body whose "action" field selects
// the operation. Errors returned by the API are surfaced as *APIError and
// match ErrUnauthorized, ErrNotFound or ErrUnavailable with errors.Is.
// File bytes never pass through the API: uploads and downloads go directly
// to presigned object URLs (see internal/netx).
package client
