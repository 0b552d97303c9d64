// Command cdcsetctl is an interactive REPL over a directory of durable
// cdcset tables, adapted from the teacher's cmd/dinodb: flag parsing,
// data-directory setup, and a close handler that flushes on SIGINT/SIGTERM,
// pared down to a single store/REPL pairing since this module has no
// transaction manager or recovery manager to switch between projects for.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cdcset/config"
	"cdcset/internal/xlog"
	"cdcset/replcmd"
	"cdcset/storectl"
)

func setupCloseHandler(store *storectl.Store) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		xlog.Info("cdcsetctl: signal received, closing store")
		store.Close()
		os.Exit(0)
	}()
}

func main() {
	promptFlag := flag.Bool("c", true, "show prompt?")
	dbFlag := flag.String("db", "data/", "data directory")
	configFlag := flag.String("config", "", "path to a .properties config file")
	capacityFlag := flag.Int("node-capacity", 0, "override the configured leaf node capacity (0: use config)")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		xlog.Warn("cdcsetctl: loading config: %v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *capacityFlag > 0 {
		cfg.NodeCapacity = *capacityFlag
	}

	store, err := storectl.Open(*dbFlag, cfg)
	if err != nil {
		xlog.Warn("cdcsetctl: opening store at %s: %v", *dbFlag, err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer store.Close()
	setupCloseHandler(store)

	xlog.Info("cdcsetctl: serving store at %s", *dbFlag)

	prompt := ""
	if *promptFlag {
		prompt = config.Prompt
	}

	r := replcmd.New()
	replcmd.Register(r, store)
	r.Run(prompt, nil, nil)
}
