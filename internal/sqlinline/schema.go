package sqlinline

import _ "embed"

// Schema creates every table and index the Postgres store relies on. The
// partial unique indexes on matches and interests enforce exclusive binding.
//
//go:embed schema.sql
var Schema string
