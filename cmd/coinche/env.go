package main

import (
	"os"
	"strconv"
	"strings"
)

// envString returns the variable's value or def when unset or blank
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns the variable as an int, or def when unset or malformed
func envInt(key string, def int) int {
	n, err := strconv.Atoi(envString(key, ""))
	if err != nil {
		return def
	}
	return n
}

// envBool returns the variable as a bool, or def when unset or malformed
func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(envString(key, ""))
	if err != nil {
		return def
	}
	return b
}
