package main

import (
	"log"

	"github.com/m3rciful/hungrylogs/app"
	corecmd "github.com/m3rciful/hungrylogs/core/cmd"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfig,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("hungrylogs: %v", err)
	}
}
