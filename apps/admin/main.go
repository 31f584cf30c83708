package main

import (
	"log"
	"os"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/user"
	logsvc "github.com/shuleapp/shule/services/logger"
	notifysvc "github.com/shuleapp/shule/services/notifier"
	boltblob "github.com/shuleapp/shule/storage/blob/bolt"
	boltkv "github.com/shuleapp/shule/storage/kv/bolt"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	errAndDie(os.MkdirAll(conf.DataDir, 0o700))

	// set up stores
	kv, err := boltkv.Open(conf.DatabasePath())
	errAndDie(err)
	defer kv.Close()

	assets, err := boltblob.Open(conf.AssetsPath())
	errAndDie(err)
	defer assets.Close()
	photos, err := assets.Bucket(boltblob.PhotosBucket)
	errAndDie(err)

	// set up logger
	var appLogger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		appLogger = logsvc.NewConsoleLogger(conf)
	} else {
		rl := logsvc.NewRollbarLogger(logger, conf)
		defer rl.Wait()
		appLogger = rl
	}

	usrSvc := user.NewService(kv, photos, appLogger, notifysvc.NewConsoleNotifier())

	// start CLI
	cli := commandLine{usrSvc: usrSvc}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
