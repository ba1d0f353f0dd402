package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/msarchive/msarchive/internal/api"
	"github.com/msarchive/msarchive/internal/auth"
	"github.com/msarchive/msarchive/internal/captcha"
	"github.com/msarchive/msarchive/internal/config"
	"github.com/msarchive/msarchive/internal/db"
	"github.com/msarchive/msarchive/internal/mcp"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	case "version":
		fmt.Printf("msarchive %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`msarchive — incident and legislation archive

Usage:
  msarchive serve [--config config.toml] [--addr :8080]
  msarchive mcp [--config config.toml]
  msarchive version
  msarchive help

Commands:
  serve     Start the HTTP server
  mcp       Serve the published dataset over MCP (stdio)
  version   Print version
  help      Show this help`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	addr := fs.String("addr", "", "listen address (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	a := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryMin)
	verifier := captcha.New(cfg.Captcha.Secret, cfg.Captcha.VerifyURL, cfg.Captcha.Mode)
	apiHandler := api.New(database, a, verifier, cfg)

	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)

	// Serve static files (the exported front end)
	staticFS := http.FileServer(http.Dir("static"))
	mux.Handle("GET /static/", api.NoCacheStatic(http.StripPrefix("/static/", staticFS)))

	// SPA: serve index.html for all non-API, non-static routes
	mux.Handle("GET /", api.NoCacheStatic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "static/index.html")
	})))

	log.Printf("msarchive %s listening on %s", version, cfg.Server.Addr)
	log.Printf("database: %s", cfg.Database.Path)
	log.Printf("captcha: %s mode", cfg.Captcha.Mode)

	if err := http.ListenAndServe(cfg.Server.Addr, api.SecurityHeaders(mux)); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer database.Close()

	srv := mcp.NewServer(database, version)
	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
