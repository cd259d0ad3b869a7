package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/abrezinsky/coinche/internal/app"
	"github.com/abrezinsky/coinche/internal/auth"
	"github.com/abrezinsky/coinche/internal/logger"
	"github.com/abrezinsky/coinche/pkg/scorefeed"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

func showBanner() {
	logo := []string{
		`   ____          _            _          `,
		`  / ___|___  ___(_)_ __   ___| |__   ___ `,
		` | |   / _ \/ _ \ | '_ \ / __| '_ \ / _ \`,
		` | |__| (_) | (_) | | | | (__| | | |  __/`,
		`  \____\___/ \___/|_|_| |_|\___|_| |_|\___|`,
	}
	fmt.Println()
	for _, line := range logo {
		fmt.Printf("  %s%s%s\n", yellow, line, reset)
	}
	fmt.Printf("  %s♥ ♠ ♦ ♣  belote & coinche scorekeeper %s%s\n\n", cyan, version, reset)
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp() {
	lines := []string{
		fmt.Sprintf("%s%s  Keyboard Shortcuts:%s", bold, green, reset),
		fmt.Sprintf("    %ss%s      - Open the match list in browser", cyan, reset),
		fmt.Sprintf("    %sh%s      - Toggle HTTP request logging", cyan, reset),
		fmt.Sprintf("    %sl%s      - Cycle log level (debug → info → warn → error)", cyan, reset),
		fmt.Sprintf("    %sq%s      - Quit server", cyan, reset),
		fmt.Sprintf("    %s?%s      - Show this help", cyan, reset),
	}
	// the terminal is in raw mode while shortcuts are active
	fmt.Print("\r\n" + strings.Join(lines, "\r\n") + "\r\n\r\n")
}

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring .env: %v", err)
	}

	port := flag.Int("port", envInt("COINCHE_PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("COINCHE_DB", "coinche.db"), "SQLite database path")
	password := flag.String("password", envString("COINCHE_PASSWORD", ""), "Scorekeeper password (auto-generated if not set)")
	logLevel := flag.String("loglevel", envString("COINCHE_LOGLEVEL", "info"), "Log level (debug, info, warn, error)")
	noKeyboard := flag.Bool("nokeyboard", envBool("COINCHE_NOKEYBOARD", false), "Disable keyboard shortcuts")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Coinche - Belote and Coinche scorekeeper

Usage:
  coinche [options]

Options:
  -port int       HTTP server port (default 8080, env COINCHE_PORT)
  -db string      SQLite database path (default "coinche.db", env COINCHE_DB)
  -password str   Scorekeeper password (env COINCHE_PASSWORD, auto-generated if not set)
  -loglevel str   Log level: debug, info, warn, error (env COINCHE_LOGLEVEL)
  -nokeyboard     Disable keyboard shortcuts
  -version        Show version and exit

Environment:
  COINCHE_FEED_URL    Record keeper that receives finished hands and results
  COINCHE_FEED_TOKEN  Bearer token for the record keeper

Variables may also be set in a .env file in the working directory.

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("coinche %s\n", version)
		os.Exit(0)
	}

	showBanner()

	pw := *password
	if pw == "" {
		pw = auth.GeneratePassword()
	}
	scorekeeperAuth := auth.New(pw)

	appLog := logger.NewWithLevel(logger.ParseLevel(*logLevel))

	// The feed URL is re-read from settings on every publish
	feed := scorefeed.NewHTTPClient(envString("COINCHE_FEED_URL", ""), appLog)
	if token := envString("COINCHE_FEED_TOKEN", ""); token != "" {
		feed.SetToken(token)
	}

	a, err := app.New(appLog, *dbPath, feed, scorekeeperAuth)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLog.Info("Scorekeeper password", "password", pw)

	if !*noKeyboard {
		printKeyboardHelp()
		go listenForKeyboard(ctx, stop, func() string { return a.BaseURL() + "/api/matches" }, appLog)
	} else {
		fmt.Printf("%sKeyboard shortcuts disabled%s\n\n", yellow, reset)
	}

	if err := a.Run(ctx, fmt.Sprintf(":%d", *port)); err != nil {
		appLog.Error("Server failed", "error", err)
		a.Close()
		os.Exit(1)
	}
}
