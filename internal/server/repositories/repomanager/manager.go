// Package repomanager wires the SQL repositories to a shared database handle
// and owns its lifecycle: open, migrate, ping, close.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users() users.Repository
	Files() files.Repository
	Ping(ctx context.Context) error
	Close() error
}
