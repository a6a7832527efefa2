package core

import "context"

// Database is the handle of an opened persistence engine (mongodb, postgres or memory).
type Database interface {
	Engine() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
