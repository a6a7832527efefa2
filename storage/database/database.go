package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/core/student"
	inmemdb "github.com/seatech/enthusiasm/storage/database/inmem"
	mongodb "github.com/seatech/enthusiasm/storage/database/mongo"
	pgdb "github.com/seatech/enthusiasm/storage/database/postgres"
)

// Stores holds the repositories of the configured database engine.
type Stores struct {
	DB       core.Database
	Students student.Repository
	Admins   admin.Repository
	SQL      *sql.DB // postgres only
}

// Open connects to the configured engine.
// When migrate is set, mongodb indexes are ensured and postgres migrations are applied.
func Open(ctx context.Context, conf *core.Config, migrate bool) (Stores, error) {
	switch conf.Database.Engine {
	case core.EngineMongo:
		db, err := mongodb.Open(ctx, conf)
		if err != nil {
			return Stores{}, err
		}
		if migrate {
			if err = db.EnsureIndexes(ctx); err != nil {
				return Stores{}, err
			}
		}
		return Stores{DB: db, Students: mongodb.NewStudentRepository(db), Admins: mongodb.NewAdminRepository(db)}, nil

	case core.EnginePostgres:
		if err := pgdb.CreateIfNotExist(ctx, conf); err != nil {
			return Stores{}, err
		}
		db, err := pgdb.Open(ctx, conf)
		if err != nil {
			return Stores{}, err
		}
		if migrate {
			if err = pgdb.Migrate(db.DB.DB, "up"); err != nil {
				return Stores{}, err
			}
		}
		return Stores{DB: db, Students: pgdb.NewStudentRepository(db), Admins: pgdb.NewAdminRepository(db), SQL: db.DB.DB}, nil

	case core.EngineMemory:
		db := inmemdb.Open()
		return Stores{DB: db, Students: inmemdb.NewStudentRepository(db), Admins: inmemdb.NewAdminRepository(db)}, nil
	}
	return Stores{}, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}
