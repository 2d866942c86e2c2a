package postgresengine

import "github.com/AntonStoeckl/attribute-query-go/attribute/postgresengine/internal/adapters"

// NewControllerFromAdapter lets tests run the Controller on a fake database adapter.
func NewControllerFromAdapter(db adapters.DBAdapter, options ...Option) (*Controller, error) {
	return newController(db, options...)
}
