package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Drew-source/isometric-rpg/internal/engine"
	"github.com/Drew-source/isometric-rpg/internal/game"
	"github.com/Drew-source/isometric-rpg/internal/persistence"
	"github.com/Drew-source/isometric-rpg/internal/server"
	"github.com/Drew-source/isometric-rpg/internal/version"
	"github.com/Drew-source/isometric-rpg/pkg/logger"
)

func init() {
	logger.Init()
}

func main() {
	// 1. Парсинг конфигурации
	var seed int64
	var addr, savePath string
	var populate int
	flag.Int64Var(&seed, "seed", 0, "World seed (0 for random)")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (default :8080)")
	flag.StringVar(&savePath, "save", "", "Path to snapshot database (empty = no persistence)")
	flag.IntVar(&populate, "populate", 8, "Number of AI fighters to spawn on a fresh world")
	flag.Parse()

	logger.Log.Info("Starting isometric RPG server...")
	logger.Log.Info(version.String())

	cfg := engine.NewConfig()
	if seed != 0 {
		cfg.Seed = seed
		logger.Log.Infof("🎲 Using explicit seed: %d", seed)
	} else {
		logger.Log.Infof("🎲 Using random seed: %d", cfg.Seed)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	cfg.SavePath = savePath

	// 2. Хранилище снапшотов (опционально)
	var db *persistence.DB
	if cfg.SavePath != "" {
		var err error
		db, err = persistence.Open(cfg.SavePath)
		if err != nil {
			logger.Log.Fatal("Failed to open snapshot database:", err)
		}
		defer db.Close()
	}

	// 3. Инициализация ядра
	svc := game.NewService(cfg, db)

	restored := false
	if db != nil {
		if has, err := db.HasSnapshot(); err == nil && has {
			n, err := db.LoadSnapshot(svc.World())
			if err != nil {
				logger.Log.Fatal("Failed to load snapshot:", err)
			}
			svc.World().Update(0)
			logger.Log.Infof("💾 Restored %d entities from snapshot", n)
			restored = true
		}
	}
	if !restored && populate > 0 {
		svc.PopulateScene(populate)
	}

	svc.Start()

	// Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 4. Запуск сервера
	srv := server.New(svc, cfg.Addr)

	go func() {
		if err := srv.Run(); err != nil {
			logger.Log.Fatal("Server start error:", err)
		}
	}()

	<-stop
	logger.Log.Info("Shutting down...")

	svc.Stop()

	logger.Log.Info("Done.")
}
