// Package daemon hosts the long-running service process: the HTTP API
// serving the provider webhook and read-only job views, single-instance
// locking, and graceful shutdown.
//
// The webhook endpoint maps ingestion outcomes onto HTTP codes that drive
// the provider's redelivery behavior: malformed callbacks get 400, bad
// signatures 401, callbacks for jobs this service never submitted 404, and
// transient ingestion failures 502 so the provider retries later.
package daemon
