package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/abrezinsky/coinche/internal/browser"
	"github.com/abrezinsky/coinche/internal/logger"
)

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(appLog *logger.SlogLogger) {
	next := logger.NextLevel(appLog.GetLevel())
	appLog.SetLevel(next)
	fmt.Printf("%sLog level: %s%s%s\r\n", green, yellow, strings.ToLower(next.String()), reset)
}

// listenForKeyboard reads single keys from a terminal stdin until ctx ends
// or the operator quits. It does nothing when stdin is not a terminal.
func listenForKeyboard(ctx context.Context, quit context.CancelFunc, matchesURL func() string, appLog *logger.SlogLogger) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		appLog.Debug("Keyboard shortcuts unavailable", "error", err)
		return
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n == 1 {
				keys <- buf[0]
			}
		}
	}()

	for {
		var key byte
		select {
		case <-ctx.Done():
			return
		case k, ok := <-keys:
			if !ok {
				return
			}
			key = k
		}

		switch strings.ToLower(string(key)) {
		case "s":
			url := matchesURL()
			fmt.Printf("%sOpening %s...%s\r\n", cyan, url, reset)
			if err := browser.Open(url); err != nil {
				fmt.Printf("%sError opening browser: %v%s\r\n", red, err, reset)
			}
		case "h":
			if appLog.IsHTTPLoggingEnabled() {
				appLog.DisableHTTPLogging()
				fmt.Printf("%sHTTP logging disabled%s\r\n", yellow, reset)
			} else {
				appLog.EnableHTTPLogging()
				fmt.Printf("%sHTTP logging enabled%s\r\n", green, reset)
			}
		case "l":
			cycleLogLevel(appLog)
		case "?":
			printKeyboardHelp()
		case "q", "\x03": // Ctrl+C arrives as a byte in raw mode
			fmt.Printf("%sShutting down server...%s\r\n", yellow, reset)
			term.Restore(fd, oldState)
			quit()
			return
		}
	}
}
