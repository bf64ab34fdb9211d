// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/speedo/internal/app"
	"github.com/relabs-tech/speedo/internal/config"
)

func main() {
	log.Println("starting speedo (mock console)")

	// Load configuration
	if err := config.InitGlobal("speedo_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsole(true); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
