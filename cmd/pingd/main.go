package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/abemar/pingconsole/internal/config"
	"github.com/abemar/pingconsole/internal/pingserver"
	"github.com/abemar/pingconsole/internal/routes"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	privileged := flag.Bool("privileged", false, "Use raw ICMP sockets (requires root or CAP_NET_RAW)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *privileged {
		cfg.Probe.Privileged = true
	}

	server := pingserver.NewServer(cfg.Server, pingserver.NewICMPProber(cfg.Probe))

	mux := http.NewServeMux()
	server.SetupRoutes(mux, routes.Table{Prefix: cfg.Console.APIPrefix})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		server.Close()
		os.Exit(0)
	}()

	if err := pingserver.ListenAndServe(cfg.Server.Host, cfg.Server.Port, pingserver.SecurityHeaders(mux)); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
