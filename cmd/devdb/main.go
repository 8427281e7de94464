package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/docauthor/internal/database"
	"github.com/localnerve/docauthor/internal/testsupport"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	var dbType string
	flag.StringVar(&dbType, "db", "postgres", "database type: postgres or mariadb")
	var migrate bool
	flag.BoolVar(&migrate, "migrate", true, "create the schema once the database is up")
	flag.Parse()

	usage := `
Start a throwaway docauthor database container for local development.
The container runs until interrupted and prints the environment to use.

Usage:

devdb [-h] [-f ENV_FILE_PATH] [-db postgres|mariadb] [-migrate=false]

ENV_FILE_PATH: path to a .env file (DB_IMAGE overrides the container image)

example
  devdb -db mariadb -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	ctx := context.Background()
	container, err := testsupport.StartDB(ctx, nil, dbType)
	if err != nil {
		log.Fatalf("Failed to start database container: %v\n", err)
	}
	defer container.Terminate(nil)

	if migrate {
		db, err := container.Connect(ctx)
		if err != nil {
			container.Terminate(nil)
			log.Fatalf("Failed to migrate database: %v\n", err)
		}
		_ = database.Close(db)
	}

	cfg := container.Config
	fmt.Printf("\nDB_TYPE=%s\nDB_HOST=%s\nDB_PORT=%s\nDB_DATABASE=%s\nDB_USER=%s\nDB_PASSWORD=%s\n\n",
		cfg.DBType, cfg.DBHost, cfg.DBPort, cfg.DBDatabase, cfg.DBUser, cfg.DBPassword)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating database container...\n", sig)
}
