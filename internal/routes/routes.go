// Package routes reads the origin:destination route list.
package routes

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/UnknownOlympus/ridefare/internal/models"
)

// ErrMalformedLine is returned for a non-blank line that is not "origin:destination".
var ErrMalformedLine = errors.New("malformed route line")

// Load reads the route list file at path.
func Load(path string) ([]models.Route, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open routes file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads one route per line. Lines are trimmed and blank lines skipped;
// the first colon separates origin from destination.
func Parse(r io.Reader) ([]models.Route, error) {
	var routes []models.Route

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		origin, destination, ok := strings.Cut(line, ":")
		origin, destination = strings.TrimSpace(origin), strings.TrimSpace(destination)
		if !ok || origin == "" || destination == "" {
			return nil, fmt.Errorf("%w at line %d: %q", ErrMalformedLine, lineNo, line)
		}

		routes = append(routes, models.Route{Origin: origin, Destination: destination})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read routes: %w", err)
	}

	return routes, nil
}
