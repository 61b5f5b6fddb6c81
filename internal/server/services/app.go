package services

import (
	"context"

	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

// Pinger is a liveness probe for a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AppService backs the /status and /stats endpoints.
type AppService struct {
	users users.Repository
	files files.Repository
	db    Pinger
	cache Pinger
}

func NewAppService(users users.Repository, files files.Repository, db, cache Pinger) *AppService {
	return &AppService{users: users, files: files, db: db, cache: cache}
}

// Status reports store liveness. It never fails; an unreachable store is
// simply reported as down.
func (s *AppService) Status(ctx context.Context) (redisAlive, dbAlive bool) {
	return s.cache.Ping(ctx) == nil, s.db.Ping(ctx) == nil
}

// Stats returns the user and file counts.
func (s *AppService) Stats(ctx context.Context) (userCount, fileCount int64, err error) {
	userCount, err = s.users.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	fileCount, err = s.files.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	return userCount, fileCount, nil
}
