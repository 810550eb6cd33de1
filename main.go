package main

import (
	"os"
	"os/signal"

	"github.com/andrewbearsley/withings-skill/cmd"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main is the entry point of the application.
// It sets up logging based on the DEBUG_WITHINGS environment variable,
// starts a goroutine to listen for interrupt signals, and executes the main command.
func main() {
	configureLogLevelFromEnv()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, func(msg string) { log.Fatal().Msg(msg) }, os.Exit)

	cmd.Execute()
}

// configureLogLevelFromEnv enables debug logging when DEBUG_WITHINGS is set to
// anything other than "false" or "0"; logging is disabled otherwise.
func configureLogLevelFromEnv() {
	switch os.Getenv("DEBUG_WITHINGS") {
	case "", "false", "0":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// setupInterruptListener registers a channel for interrupt signals.
func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt waits for an interrupt signal and exits the program when one
// is received. The log and exit functions are injectable for testing.
func handleInterrupt(stopChan chan os.Signal, fatalLog func(string), exit func(int)) {
	<-stopChan
	fatalLog("Interrupt signal received. Exiting...")
	exit(1)
}
