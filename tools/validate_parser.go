//go:build ignore

package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/muurk/easyip/internal/protocol"
)

// hexField matches the dump written by logging.RawBytes in debug logs.
var hexField = regexp.MustCompile(`"hex":\s*"([0-9a-fA-F]+)(\.\.\.)?"`)

// Statistics tracks parsing results
type Statistics struct {
	TotalDatagrams int
	TotalFiles     int
	ParseSuccess   int
	ParseFailure   int
	Truncated      int
	DeviceTypes    map[string]int
	ResponseTypes  map[uint16]int
	Models         map[string]int
	Lengths        map[int]int
	Failures       []Failure
}

// Failure stores information about a datagram that did not parse
type Failure struct {
	File       string
	LineNumber int
	PayloadHex string
	Error      string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_parser <directory-or-file>")
		fmt.Println("Input is either raw hex, one datagram per line, or a debug log")
		fmt.Println("written with EASYIP_LOG_LEVEL=debug.")
		fmt.Println("Example: validate_parser responses.hex")
		fmt.Println("         EASYIP_LOG_LEVEL=debug easyip discover 2> scan.log && validate_parser scan.log")
		os.Exit(1)
	}

	path := os.Args[1]
	stats := Statistics{
		DeviceTypes:   make(map[string]int),
		ResponseTypes: make(map[uint16]int),
		Models:        make(map[string]int),
		Lengths:       make(map[int]int),
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	files := []string{path}
	if info.IsDir() {
		files = nil
		for _, pattern := range []string{"*.hex", "*.log"} {
			matches, _ := filepath.Glob(filepath.Join(path, pattern))
			files = append(files, matches...)
		}
		if len(files) == 0 {
			fmt.Printf("No .hex or .log files found in %s\n", path)
			os.Exit(1)
		}
	}

	fmt.Printf("=== Easy IP Parser Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		processFile(file, &stats)
	}
	printStatistics(&stats)

	if stats.ParseFailure > 0 {
		os.Exit(2)
	}
}

// datagramHex extracts the hex payload from a line, if it carries one.
func datagramHex(line string) (payload string, truncated bool, ok bool) {
	if m := hexField.FindStringSubmatch(line); m != nil {
		return m[1], m[2] != "", true
	}
	line = strings.Join(strings.Fields(line), "")
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false, false
	}
	if _, err := hex.DecodeString(line); err != nil {
		return "", false, false
	}
	return line, false, true
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		// Outgoing requests are logged too; only responses are parsed.
		if strings.Contains(line, "Sending") || strings.Contains(line, "configure response") {
			continue
		}
		payloadHex, truncated, ok := datagramHex(line)
		if !ok {
			continue
		}

		stats.TotalDatagrams++
		if truncated {
			stats.Truncated++
		}

		payload, err := hex.DecodeString(payloadHex)
		if err != nil {
			stats.fail(filename, lineNum, payloadHex, fmt.Sprintf("hex decode error: %v", err))
			continue
		}
		stats.Lengths[len(payload)]++

		rec, err := protocol.Parse(payload, "")
		if err != nil {
			var pe *protocol.ParseError
			if errors.As(err, &pe) {
				stats.fail(filename, lineNum, payloadHex, fmt.Sprintf("%s: %v", pe.Kind, err))
			} else {
				stats.fail(filename, lineNum, payloadHex, err.Error())
			}
			continue
		}

		stats.ParseSuccess++
		stats.DeviceTypes[rec.DeviceType.Label()]++
		stats.ResponseTypes[rec.ResponseType]++
		if rec.ModelName != "" {
			stats.Models[rec.ModelName]++
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
	}
}

func (s *Statistics) fail(file string, line int, payloadHex, msg string) {
	s.ParseFailure++
	s.Failures = append(s.Failures, Failure{File: file, LineNumber: line, PayloadHex: payloadHex, Error: msg})
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func sortedKeys[K comparable](m map[K]int, less func(a, b K) bool) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}

func printStatistics(stats *Statistics) {
	fmt.Printf("\n========================================\n")
	fmt.Printf("VALIDATION RESULTS\n")
	fmt.Printf("========================================\n\n")

	fmt.Printf("Files Processed:    %d\n", stats.TotalFiles)
	fmt.Printf("Total Datagrams:    %d\n", stats.TotalDatagrams)
	fmt.Printf("Parse Success:      %d (%.2f%%)\n", stats.ParseSuccess, percent(stats.ParseSuccess, stats.TotalDatagrams))
	fmt.Printf("Parse Failure:      %d (%.2f%%)\n", stats.ParseFailure, percent(stats.ParseFailure, stats.TotalDatagrams))
	if stats.Truncated > 0 {
		fmt.Printf("Truncated Dumps:    %d (log dumps stop at 256 bytes)\n", stats.Truncated)
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("DEVICE TYPES\n")
	fmt.Printf("----------------------------------------\n")
	for _, t := range sortedKeys(stats.DeviceTypes, func(a, b string) bool { return a < b }) {
		fmt.Printf("%-10s %d\n", t, stats.DeviceTypes[t])
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("RESPONSE TYPES\n")
	fmt.Printf("----------------------------------------\n")
	for _, t := range sortedKeys(stats.ResponseTypes, func(a, b uint16) bool { return a < b }) {
		fmt.Printf("0x%04x: %d\n", t, stats.ResponseTypes[t])
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("MODELS\n")
	fmt.Printf("----------------------------------------\n")
	for _, m := range sortedKeys(stats.Models, func(a, b string) bool { return a < b }) {
		fmt.Printf("%-20s %d\n", m, stats.Models[m])
	}

	fmt.Printf("\n----------------------------------------\n")
	fmt.Printf("DATAGRAM LENGTHS\n")
	fmt.Printf("----------------------------------------\n")
	for _, l := range sortedKeys(stats.Lengths, func(a, b int) bool { return a < b }) {
		fmt.Printf("%d bytes: %d datagrams (%.2f%%)\n", l, stats.Lengths[l], percent(stats.Lengths[l], stats.TotalDatagrams))
	}

	if len(stats.Failures) > 0 {
		fmt.Printf("\n----------------------------------------\n")
		fmt.Printf("PARSE FAILURES (%d total)\n", len(stats.Failures))
		fmt.Printf("----------------------------------------\n")

		maxShow := 10
		if len(stats.Failures) > maxShow {
			fmt.Printf("(Showing first %d of %d failures)\n", maxShow, len(stats.Failures))
		}
		for i, failed := range stats.Failures {
			if i >= maxShow {
				break
			}
			fmt.Printf("\nFailure #%d:\n", i+1)
			fmt.Printf("  File: %s (line %d)\n", failed.File, failed.LineNumber)
			fmt.Printf("  Error: %s\n", failed.Error)
			preview := failed.PayloadHex
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			fmt.Printf("  Payload: %s\n", preview)
		}
	}

	fmt.Printf("\n========================================\n")
	if stats.ParseFailure == 0 {
		fmt.Printf("SUCCESS: all datagrams parsed\n")
	} else {
		fmt.Printf("ISSUES FOUND: %d datagrams failed to parse\n", stats.ParseFailure)
	}
	fmt.Printf("========================================\n")
}
