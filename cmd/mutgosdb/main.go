// Command mutgosdb loads a MUTGOS dump file into a freshly configured
// database and commits it, the minimal end-to-end exercise of every
// layer this module builds: bootstrap wiring, the backend, the cache,
// and the dump reader.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mutgos/dbcore/dbdump"
	"github.com/mutgos/dbcore/internal/bootstrap"
	"github.com/mutgos/dbcore/internal/consoleui"
)

func main() {
	dumpPath := flag.String("dump", "", "path to a MUTGOS dump file to load")
	flag.Parse()

	if *dumpPath == "" {
		fmt.Fprintln(os.Stderr, "usage: mutgosdb -dump <path>")
		os.Exit(2)
	}

	if err := run(*dumpPath); err != nil {
		fmt.Fprintf(os.Stderr, "mutgosdb: %v\n", err)
		os.Exit(1)
	}
}

func run(dumpPath string) error {
	ctx := context.Background()

	fmt.Println(consoleui.Title("mutgosdb"))

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	svc, err := bootstrap.InitService(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() {
		if cerr := svc.Close(); cerr != nil {
			svc.Logger.Warnf("closing service: %s", cerr)
		}
	}()

	f, err := os.Open(dumpPath)
	if err != nil {
		return fmt.Errorf("opening dump %s: %w", dumpPath, err)
	}
	defer f.Close()

	reader := dbdump.New(svc.Access, svc.Logger)

	if err := reader.Parse(ctx, f); err != nil {
		return fmt.Errorf("parsing dump %s: %w", dumpPath, err)
	}

	if err := svc.Access.CommitAll(ctx); err != nil {
		return fmt.Errorf("committing loaded entities: %w", err)
	}

	svc.Logger.Infof("loaded and committed %s", dumpPath)

	return nil
}
