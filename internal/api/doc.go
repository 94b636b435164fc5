// Package api exposes the task tracker over HTTP. Handlers decode path and
// body parameters, call the task service, and translate results and errors
// into the JSON responses clients rely on.
package api
