// Package hub provides per-session subscriber tracking and event fan-out.
//
// The [Hub] combines two concerns that always move together: a
// subscription registry (which live connections belong to which session)
// and a broadcaster ([Hub.Publish]) that delivers a serialized event to
// every connection in a session's set, pruning the ones that fail.
//
// Dead connections are discovered lazily at publish time. An optional
// liveness sweep ([Hub.Run]) can additionally ping connections at an
// interval to reclaim registry entries for subscribers that vanished
// between publishes.
package hub
