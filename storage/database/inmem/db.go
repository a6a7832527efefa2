package inmemdb

import (
	"context"
	"sync"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
)

type (
	DB struct {
		student *studentTable
		admin   *adminTable
	}

	studentTable struct {
		sync.RWMutex
		pkCount int
		table   map[string]*student.Student
	}

	adminTable struct {
		sync.RWMutex
		pkCount int
		table   map[string]*admin.Admin
	}
)

var _ core.Database = (*DB)(nil)

func Open() *DB {
	return &DB{
		student: &studentTable{table: make(map[string]*student.Student)},
		admin:   &adminTable{table: make(map[string]*admin.Admin)},
	}
}

func (db *DB) Engine() string                  { return core.EngineMemory }
func (db *DB) Ping(ctx context.Context) error  { return nil }
func (db *DB) Close(ctx context.Context) error { return nil }

// Flush empties every table.
func (db *DB) Flush() {
	db.student.Lock()
	db.student.table = make(map[string]*student.Student)
	db.student.Unlock()

	db.admin.Lock()
	db.admin.table = make(map[string]*admin.Admin)
	db.admin.Unlock()
}
