// Command attendctl runs maintenance tasks against the attendance record store.
package main

import (
	"os"

	"github.com/swipeattend/backend/internal/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("attendctl failed")
		os.Exit(1)
	}
}
