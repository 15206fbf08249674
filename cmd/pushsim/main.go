// Command pushsim exercises the push worker and the opt-in flow from a
// terminal against a running backend.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

const envPrefix = "PUSHSIM"

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "push":
		err = runPush(os.Args[2:], logger)
	case "optin":
		err = runOptIn(os.Args[2:], logger)
	case "vapid":
		err = runVAPID(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", os.Args[1]).Msg("pushsim failed")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pushsim <push|optin|vapid> [flags]")
}
