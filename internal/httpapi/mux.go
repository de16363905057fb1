package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux builds the shared mux with the healthcheck pre-registered;
// feature modules attach their routes afterwards.
func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	return mux
}
