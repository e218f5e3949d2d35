// Package main — точка входа broadcast-service (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/psds-microservice/broadcast-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
