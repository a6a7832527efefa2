package main

import (
	"github.com/seatech/enthusiasm/core"
	pgdb "github.com/seatech/enthusiasm/storage/database/postgres"
)

var migrateFunc = pgdb.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Engine != core.EnginePostgres {
		return errNotPostgres
	}
	return migrateFunc(cli.sqlDB, args[0], args[1:]...)
}
