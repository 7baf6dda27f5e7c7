// Command clearscreen opens a window and clears it every frame with a colour
// slowly cycling through a palette. It exercises the whole frame cycle
// without any pipelines or shaders.
package main

import (
	"flag"
	"runtime"

	log "github.com/sirupsen/logrus"

	"vulkan-wrappers/config"
)

func init() {
	// This is needed to arrange that main() runs on main thread.
	// See documentation for functions that are only allowed to be called
	// from the main thread.
	runtime.LockOSThread()

	flag.StringVar(&args.config, "config", "", "Path to a dotenv configuration file")
	flag.BoolVar(&args.debug, "debug", false, "Enable Vulkan validation layers and debug logs")
}

var args struct {
	config string
	debug  bool
}

func main() {
	flag.Parse()

	cfg, err := config.Load(args.config)
	if err != nil {
		log.Fatalf("ERROR: %s", err)
	}
	if args.debug {
		cfg.Validation = true
		cfg.LogLevel = log.DebugLevel.String()
	}
	if err := cfg.ConfigureLogger(log.StandardLogger()); err != nil {
		log.Fatalf("ERROR: %s", err)
	}

	app := &ClearScreenApp{
		cfg: cfg,
		log: log.WithField("app", "clearscreen"),
	}
	if err := app.Run(); err != nil {
		log.Fatalf("ERROR: %+v", err)
	}
}
