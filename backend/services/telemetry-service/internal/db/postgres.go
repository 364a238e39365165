package db

import (
	"database/sql"

	libdb "ueicloud/backend/libs/db"
)

// NewPostgres opens the telemetry store pool from explicit connection params.
func NewPostgres(params libdb.ConnParams) (*sql.DB, error) {
	return libdb.Connect(params)
}
