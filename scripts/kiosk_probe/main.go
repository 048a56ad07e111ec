// Command kiosk_probe replays QR check-in payloads against a running
// instance and checks the classifier verdicts. Used before rolling a new
// build out to the lobby tablets.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type probe struct {
	Payload    string `json:"payload"`
	Confirm    bool   `json:"confirm,omitempty"`
	WantStatus string `json:"want_status,omitempty"`
	WantHTTP   int    `json:"want_http,omitempty"`
	Critical   bool   `json:"critical"`
}

type probeFile struct {
	Probes []probe `json:"probes"`
}

type checkInResult struct {
	Data struct {
		Status               string `json:"status"`
		RequiresConfirmation bool   `json:"requires_confirmation"`
	} `json:"data"`
}

type outcome struct {
	Probe    probe
	HTTP     int
	Status   string
	Match    bool
	Err      error
	Duration time.Duration
}

func main() {
	var (
		base       string
		probesPath string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&probesPath, "probes", filepath.Join("scripts", "kiosk_probe", "probes.json"), "Path to JSON probes file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	probes, err := loadProbes(probesPath)
	if err != nil {
		log.Fatalf("failed to load probes: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		outcomes []outcome
		breaking int
		minor    int
	)

	for _, p := range probes {
		out := runProbe(client, base, p)
		if out.Err != nil || !out.Match {
			if p.Critical {
				breaking++
			} else {
				minor++
			}
		}
		outcomes = append(outcomes, out)
	}

	printReport(outcomes)

	fmt.Printf("Breaking mismatches: %d, Minor mismatches: %d\n", breaking, minor)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pf probeFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, err
	}
	if len(pf.Probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return pf.Probes, nil
}

func runProbe(client *http.Client, base string, p probe) outcome {
	out := outcome{Probe: p}

	body, err := json.Marshal(map[string]interface{}{
		"payload": p.Payload,
		"confirm": p.Confirm,
	})
	if err != nil {
		out.Err = err
		return out
	}

	url := strings.TrimRight(base, "/") + "/api/v1/attendance/check-in"
	start := time.Now()
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	out.Duration = time.Since(start)
	if err != nil {
		out.Err = fmt.Errorf("check-in request failed: %w", err)
		return out
	}
	defer resp.Body.Close()

	out.HTTP = resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		out.Err = fmt.Errorf("read body: %w", err)
		return out
	}

	var parsed checkInResult
	if err := json.Unmarshal(raw, &parsed); err == nil {
		out.Status = parsed.Data.Status
		if parsed.Data.RequiresConfirmation {
			out.Status = "REQUIRES_CONFIRMATION"
		}
	}

	wantHTTP := p.WantHTTP
	if wantHTTP == 0 {
		wantHTTP = http.StatusOK
	}
	out.Match = out.HTTP == wantHTTP
	if p.WantStatus != "" {
		out.Match = out.Match && strings.EqualFold(out.Status, p.WantStatus)
	}
	return out
}

func printReport(results []outcome) {
	fmt.Println("Kiosk Probe Report")
	fmt.Println("==================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.Match {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s\n", status, res.Probe.Payload)
		fmt.Printf("  HTTP: %d (%s)\n", res.HTTP, res.Duration)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
		} else {
			fmt.Printf("  Status: %s | Want: %s | Critical: %t\n", res.Status, res.Probe.WantStatus, res.Probe.Critical)
		}
	}
}
