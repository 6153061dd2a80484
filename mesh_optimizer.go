package main

import (
	"flag"

	"go.uber.org/zap"

	"github.com/mogaika/mesh_optimizer/config"
	"github.com/mogaika/mesh_optimizer/logger"
	"github.com/mogaika/mesh_optimizer/web"
)

func main() {
	var addr, configPath, dataDir string
	var debug bool
	flag.StringVar(&addr, "i", "", "Address of server, overrides config")
	flag.StringVar(&configPath, "config", "", "Path to yaml config")
	flag.StringVar(&dataDir, "dir", "", "Directory with fbx files available by ?file= param")
	flag.BoolVar(&debug, "debug", false, "Debug logging")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Init("info", "")
		logger.Fatal("config loading failed", zap.Error(err))
	}
	if debug {
		cfg.Logging.Level = "debug"
	}
	if dataDir != "" {
		cfg.Server.DataDirectory = dataDir
	}

	log := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile)
	defer logger.Sync()

	if err := web.NewServer(cfg, log).Start(addr); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
