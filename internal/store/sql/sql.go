// Package sql holds the embedded schema migrations and queries for the
// reconciliation result store.
package sql

import (
	"embed"
)

//go:embed migrations
var Migrations embed.FS

//go:embed queries/register_run.sql
var RegisterRun string

//go:embed queries/complete_run.sql
var CompleteRun string

//go:embed queries/run_totals.sql
var RunTotals string
