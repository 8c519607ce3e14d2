package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"finquest/internal/config"
	"finquest/internal/database"
	"finquest/internal/repository"
	"finquest/internal/service"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: seed <command> [flags]

Commands:
  export  -user <id> [-out <file>]           write a user's transactions to JSON
  import  -user <id> -file <file>            load transactions from exported JSON
  demo    -user <id> [-days <n>] [-seed <n>] fabricate spending history for a user
`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := service.NewSeedService(repository.NewTransactionRepository(db))

	switch os.Args[1] {
	case "export":
		fs := flag.NewFlagSet("export", flag.ExitOnError)
		user := fs.String("user", "", "user id")
		out := fs.String("out", "", "output file (default stdout)")
		fs.Parse(os.Args[2:])
		if *user == "" {
			usage()
		}

		data, err := seeder.Export(*user)
		if err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		if *out == "" {
			fmt.Println(string(data))
			return
		}
		if err := os.WriteFile(*out, data, 0o600); err != nil {
			log.Fatalf("Failed to write %s: %v", *out, err)
		}
		log.Printf("Exported transactions for %s to %s", *user, *out)

	case "import":
		fs := flag.NewFlagSet("import", flag.ExitOnError)
		user := fs.String("user", "", "user id")
		file := fs.String("file", "", "input file")
		fs.Parse(os.Args[2:])
		if *user == "" || *file == "" {
			usage()
		}

		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read %s: %v", *file, err)
		}
		n, err := seeder.Import(*user, data)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		log.Printf("Imported %d transactions for %s", n, *user)

	case "demo":
		fs := flag.NewFlagSet("demo", flag.ExitOnError)
		user := fs.String("user", "", "user id")
		days := fs.Int("days", 90, "days of history to fabricate")
		seed := fs.Int64("seed", 1, "random seed")
		fs.Parse(os.Args[2:])
		if *user == "" {
			usage()
		}

		n, err := seeder.GenerateDemo(*user, *days, *seed)
		if err != nil {
			log.Fatalf("Demo generation failed: %v", err)
		}
		log.Printf("Generated %d demo transactions for %s", n, *user)

	default:
		usage()
	}
}
