// Command skies looks up the weather, the moon phase and upcoming celestial
// events for a city name or US ZIP code.
//
// Usage:
//
//	skies [flags] <city or ZIP>
//	skies -i
//
// In interactive mode each line is a new lookup; a line entered while a
// lookup is still running supersedes it.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/demskies/demskies/internal/app"
	"github.com/demskies/demskies/internal/config"
	"github.com/demskies/demskies/internal/skies"
	"github.com/demskies/demskies/internal/telemetry"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	interactive := flag.Bool("i", false, "Interactive mode: read one query per line from stdin")
	events := flag.Int("events", 4, "Number of upcoming celestial events to show")
	verbose := flag.Bool("v", false, "Log provider calls to stderr")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "skies: %v\n", err)
		os.Exit(2)
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := telemetry.NewLogger(os.Stderr, telemetry.LoggerConfig{Level: level, Console: true})

	components, err := app.Build(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "skies: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &renderer{w: os.Stdout, events: *events}

	if *interactive {
		if err := repl(ctx, components.Service, os.Stdin, r); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "skies: %v\n", err)
			os.Exit(1)
		}
		return
	}

	vm, err := components.Service.FetchWeather(ctx, strings.Join(flag.Args(), " "))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	r.render(vm)
}

// fetcher performs one lookup.
type fetcher interface {
	FetchWeather(ctx context.Context, rawInput string) (*skies.ViewModel, error)
}

// repl runs lookups for each input line until in is exhausted, "quit" is
// entered, or ctx is canceled. Only the newest lookup's outcome is printed.
func repl(ctx context.Context, svc fetcher, in io.Reader, r *renderer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var (
		latest skies.Latest
		wg     sync.WaitGroup
	)
	defer func() {
		latest.Stop()
		wg.Wait()
	}()

	r.prompt()
	for {
		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				wg.Wait()
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			line = l
		}

		if strings.TrimSpace(line) == "quit" {
			return nil
		}

		lookupCtx, gen := latest.Begin(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			vm, err := svc.FetchWeather(lookupCtx, line)
			latest.Finish(gen, func() {
				if err != nil {
					r.failure(err)
				} else {
					r.render(vm)
				}
				r.prompt()
			})
		}()
	}
}
