package main

import (
	"context"
	"log"
	"os"

	"github.com/seatech/enthusiasm/core"
	"github.com/seatech/enthusiasm/core/admin"
	"github.com/seatech/enthusiasm/storage/database"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB; migrations are left to the migrate command
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	stores, err := database.Open(ctx, conf, false)
	cancel()
	errAndDie(err)

	// start CLI
	cli := commandLine{
		conf:   conf,
		sqlDB:  stores.SQL,
		admSvc: admin.NewService(stores.Admins, conf),
	}
	runErr := cli.run(os.Args)

	ctx, cancel = context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()
	if err := stores.DB.Close(ctx); err != nil {
		logger.Printf("closing database: %s\n", err)
	}

	if runErr != nil {
		if runErr != errHelp {
			logger.Printf("\nerror: %s\n", runErr)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
