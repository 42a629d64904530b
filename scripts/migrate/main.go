package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/lifesaving-resources/instructor-api/pkg/config"
	"github.com/lifesaving-resources/instructor-api/pkg/database"
)

func main() {
	var schemaPath string
	flag.StringVar(&schemaPath, "schema", filepath.Join("scripts", "migrate", "schema.sql"), "Path to schema SQL file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		log.Fatalf("failed to read schema: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(string(schema)); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	log.Printf("schema applied from %s", schemaPath)
}
