// Package api exposes the import controller and the call settings panels
// over HTTP. Handlers translate requests into service calls and map service
// errors to status codes without leaking internal details.
package api
