// Package bridge is the HTTP client for the telemetry bridge that fronts
// the external simulator.
//
// The bridge exposes one session per connection; reverting to launch or
// deleting the session invalidates its vessel handles, so callers dial a
// fresh session for every episode:
//
//	POST   /connect
//	GET    /sessions/{id}/vessel
//	POST   /sessions/{id}/revert
//	DELETE /sessions/{id}
//	GET    /sessions/{id}/vessels/{vid}/flight/{name}?frame=hybrid
//	GET    /sessions/{id}/vessels/{vid}/control/{name}
//	PUT    /sessions/{id}/vessels/{vid}/control/{name}
//	GET    /sessions/{id}/vessels/{vid}/crew
//	GET    /sessions/{id}/vessels/{vid}/situation
//	POST   /sessions/{id}/vessels/{vid}/stage
package bridge
