package main

import (
	"log"

	"github.com/streamgate/streamgate/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("streamgate failed to start: %v", err)
	}
}
