// Package db carries the embedded database schema.
package db

import _ "embed"

// Schema holds the DDL for the orders table. It is idempotent and applied on
// every startup.
//
//go:embed migrations/001_schema.sql
var Schema string
