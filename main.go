package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/pdxmph/todo-tui/internal/config"
	"github.com/pdxmph/todo-tui/internal/db"
	"github.com/pdxmph/todo-tui/internal/logging"
	"github.com/pdxmph/todo-tui/internal/tui"
)

func main() {
	configPath := flag.String("config", config.Path(), "path to config file")
	dbPath := flag.String("db", "", "path to task database (overrides config)")
	initFlag := flag.Bool("init", false, "write a default config and create the database, then exit")
	fixturesPath := flag.String("fixtures", "", "create a sample database at this path, then exit")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, logFile, err := logging.Open(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()

	if *fixturesPath != "" {
		if err := db.CreateFixturesDatabase(*fixturesPath, logger); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Created fixtures database at %s\n", *fixturesPath)
		return
	}

	// Open database
	database, err := db.Open(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
		log.Fatal(err)
	}
	defer database.Close()

	if *initFlag {
		if _, err := os.Stat(*configPath); os.IsNotExist(err) {
			if err := cfg.SaveTo(*configPath); err != nil {
				log.Fatal(err)
			}
			fmt.Printf("Wrote config to %s\n", *configPath)
		}
		fmt.Printf("Database ready at %s\n", cfg.Database.Path)
		return
	}

	logger.Info().Str("db", cfg.Database.Path).Int("expiry_days", cfg.Expiry.ThresholdDays).Msg("starting")

	// Create model
	model, err := tui.New(database, tui.Options{
		ExpiryDays: cfg.Expiry.ThresholdDays,
		Logger:     logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Start the program
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error().Err(err).Msg("program exited with error")
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
