package main

import (
	"flag"
	"os"

	"github.com/jhoicas/POS-api/internal/infrastructure/migration"
	"github.com/jhoicas/POS-api/pkg/config"
	"github.com/jhoicas/POS-api/pkg/logger"
)

// Uso:
//
//	go run ./cmd/migrate -cmd up
//	go run ./cmd/migrate -cmd down
//	go run ./cmd/migrate -cmd steps -n -1
//	go run ./cmd/migrate -cmd version
func main() {
	cmd := flag.String("cmd", "up", "up | down | steps | version")
	n := flag.Int("n", 1, "cantidad de pasos para -cmd steps (negativo revierte)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	m, err := migration.New(cfg.DB.ConnectionString(), log.Component("migration"))
	if err != nil {
		log.Fatal().Err(err).Msg("preparar migraciones")
	}

	switch *cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps":
		err = m.Steps(*n)
	case "version":
		version, dirty, vErr := m.Version()
		if vErr != nil {
			err = vErr
			break
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("versión del esquema")
	default:
		_ = m.Close()
		log.Error().Str("cmd", *cmd).Msg("comando desconocido")
		os.Exit(2)
	}
	if cErr := m.Close(); cErr != nil {
		log.Warn().Err(cErr).Msg("cerrar migrador")
	}
	if err != nil {
		log.Error().Err(err).Str("cmd", *cmd).Msg("migración fallida")
		os.Exit(1)
	}
}
