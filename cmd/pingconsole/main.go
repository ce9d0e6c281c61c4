package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/abemar/pingconsole/internal/app"
	"github.com/abemar/pingconsole/internal/client"
	"github.com/abemar/pingconsole/internal/config"
	"github.com/abemar/pingconsole/internal/routes"
	"github.com/abemar/pingconsole/internal/session"
	"github.com/abemar/pingconsole/internal/transport"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	host := flag.String("host", "", "Override console.host (host:port of the ping backend)")
	scheme := flag.String("scheme", "", "Override console.scheme (ws or wss)")
	token := flag.String("token", "", "Auth token (if backend requires it)")
	logPath := flag.String("log", "", "Write logs to this file")
	flag.Parse()

	if *logPath != "" {
		f, err := tea.LogToFile(*logPath, "pingconsole")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *host != "" {
		cfg.Console.Host = *host
	}
	if *scheme != "" {
		cfg.Console.Scheme = *scheme
	}
	if *token != "" {
		cfg.Console.Token = *token
	}

	table := routes.Table{Prefix: cfg.Console.APIPrefix}
	endpoint, err := routes.Endpoint(cfg.Console.Scheme, cfg.Console.Host, table.GetRoute(routes.WSConnect))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	httpBase, err := routes.HTTPBase(endpoint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	mgr := session.New(newTransport(endpoint, cfg.Console))
	auth := client.NewHTTPClient(httpBase, cfg.Console.Token, table,
		client.WithSessionCookie(cfg.Console.SessionCookie, cfg.Console.SessionValue),
		client.WithTimeout(cfg.Console.HTTPTimeout),
	)

	var p *tea.Program
	m := app.New(mgr, auth, endpoint, func(msg tea.Msg) { p.Send(msg) })
	p = tea.NewProgram(m, tea.WithAltScreen())

	log.Printf("pingconsole: session endpoint %s", endpoint)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newTransport(endpoint string, cc config.ConsoleConfig) *transport.WebSocket {
	header := http.Header{}
	if cc.Token != "" {
		header.Set("Authorization", "Bearer "+cc.Token)
	}
	if cc.SessionCookie != "" {
		header.Set("Cookie", (&http.Cookie{Name: cc.SessionCookie, Value: cc.SessionValue}).String())
	}

	opts := []transport.Option{
		transport.WithHeader(header),
		transport.WithKeepalive(cc.Keepalive),
		transport.WithMaxFrameSize(cc.MaxFrameSize),
	}
	if !cc.WebSocket {
		opts = append(opts, transport.WithDialer(nil))
	}
	return transport.NewWebSocket(endpoint, opts...)
}
