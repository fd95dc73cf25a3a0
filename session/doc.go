// Package session tracks in-flight streaming requests so they can be
// cancelled mid-stream. The Registry is an explicit object owned by the
// serving component (not hidden process state); its lifecycle is tied to the
// engine that created it while remaining visible to every concurrent call.
package session
