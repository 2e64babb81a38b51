// Command mavgcs-status connects to one configured vehicle and serves
// its live attribute snapshot and mission state as JSON over HTTP.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/flightpath-dev/mavgcs"
	"github.com/flightpath-dev/mavgcs/internal/config"
	"github.com/flightpath-dev/mavgcs/internal/httpapi"
)

func main() {
	targetID := flag.String("target", "", "target id from the target registry; defaults to the link address in config")
	flag.Parse()

	cfg := config.Load()

	address := cfg.Link.DefaultAddress
	rate := cfg.Link.DefaultRateHz

	if *targetID != "" {
		registry, err := config.LoadTargetRegistry(cfg.Server.TargetRegistryPath)
		if err != nil {
			log.Fatalf("loading target registry: %v", err)
		}
		target, err := registry.Find(*targetID)
		if err != nil {
			log.Fatalf("resolving target %q: %v", *targetID, err)
		}
		address = target.Address
		if target.RateHz != 0 {
			rate = target.RateHz
		}
	}

	log.Printf("connecting to %s (await_params=%v, rate=%dHz)", address, cfg.Link.AwaitParams, rate)

	vehicle, err := mavgcs.Connect(address, mavgcs.ConnectOptions{
		AwaitParams:   cfg.Link.AwaitParams,
		RateHz:        rate,
		StatusPrinter: func(line string) { log.Println(line) },
	})
	if err != nil {
		log.Fatalf("connect: %v", err)
	}

	srv := httpapi.New(vehicle, cfg.ServerAddr(), cfg.Server.CORSOrigins, log.Default())
	go handleShutdown(vehicle)

	if err := srv.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func handleShutdown(v mavgcs.Vehicle) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("shutting down: closing link")
	if err := v.Close(); err != nil {
		log.Printf("error closing link: %v", err)
	}
	os.Exit(0)
}
