package main

import (
	"os"

	"github.com/stocksync/backend/internal/infrastructure/config"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}
