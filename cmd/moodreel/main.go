package main

import (
	"os"

	"github.com/spacesedan/moodreel/config"
	"github.com/spacesedan/moodreel/internal/logging"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
