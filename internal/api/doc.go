// Package api defines wire-format types and the read-only status
// projection for the HTTP API layer. It translates catalog models into
// transport-friendly DTOs so consumers can render job status without
// coupling to internal types.
//
// The projection is diagnostic only: given a job id or video id it reports
// job metadata plus, per distinct chord, caption counts, known position
// counts, and whether light/dark diagrams exist. No side effects.
//
// DTOs use camelCase JSON tags. Internal enums are exposed as lowercase
// strings and timestamps use RFC3339.
package api
