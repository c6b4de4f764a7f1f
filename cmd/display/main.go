package main

import (
	"log"

	"github.com/relabs-tech/gesture_computer/internal/app"
	"github.com/relabs-tech/gesture_computer/internal/config"
)

func main() {
	log.Println("starting gesture display")

	if err := config.InitGlobal("gesture_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunDisplay(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
