package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"fleetwatch/internal/config"
)

const usageText = `usage: fleetwatch [flags] <command> [args]

commands:
  login          start a session (--username, --password-file)
  register       create an account on the fleet service
  logout         end the session and forget the stored tokens
  whoami         show the user of the stored session
  watch          live fleet list and map (default)
  resync         regenerate mock positions and print the fleet
  history <id>   show recent positions of a vessel

flags:
`

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	var opts commandOptions
	fs := pflag.NewFlagSet("fleetwatch", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	opts.bindFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	command := "watch"
	args := fs.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	if err := a.run(ctx, command, args, opts); err != nil {
		if errors.Is(err, errUnknownCommand) {
			fs.Usage()
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		a.close()
		os.Exit(1)
	}
}
