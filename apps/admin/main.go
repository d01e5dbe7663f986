package main

import (
	"os"

	"github.com/kifolio/backend/core"
	logsvc "github.com/kifolio/backend/services/logger"
	"github.com/kifolio/backend/storage/database"
	sqlxrepos "github.com/kifolio/backend/storage/database/sqlx"
)

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger := logsvc.NewZapLogger(conf)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()
	if err = db.Ping(); err != nil {
		logger.Fatal("pinging database", err)
	}

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		logger:  logger,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
