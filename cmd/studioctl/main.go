// Command studioctl runs style extraction and zone rendering against local
// files, without a database or the HTTP api.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"studio/internal/infra"
)

const usage = `usage:
  studioctl extract [-name NAME] [-vision] [-seed N] [-out FILE] IMAGE...
  studioctl render -zones FILE -out FILE [-assets DIR] [-width W -height H | -format PRESET]`

var errUsage = errors.New(usage)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		exitWithError(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger := infra.NewLogger(cfg.AppEnv, "studioctl").Output(zerolog.ConsoleWriter{Out: stderr, NoColor: true})
	if cfg.AppEnv != "development" {
		logger = logger.Level(zerolog.WarnLevel)
	}

	switch args[0] {
	case "extract":
		return runExtract(ctx, cfg, args[1:], stdout, logger)
	case "render":
		return runRender(ctx, cfg, args[1:], stdout, stderr, logger)
	case "-h", "--help", "help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
