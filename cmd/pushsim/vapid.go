package main

import (
	"flag"
	"fmt"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/peterbourgon/ff/v3"
)

func runVAPID(args []string) error {
	flagset := flag.NewFlagSet("pushsim vapid", flag.ExitOnError)
	if err := ff.Parse(flagset, args, ff.WithEnvVarPrefix(envPrefix)); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}

	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return fmt.Errorf("generating VAPID keys: %w", err)
	}

	fmt.Println("push:")
	fmt.Printf("  vapid_public_key: %q\n", publicKey)
	fmt.Printf("  vapid_private_key: %q\n", privateKey)
	return nil
}
