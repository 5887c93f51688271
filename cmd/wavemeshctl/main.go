// Command wavemeshctl is a thin HTTP client for a running wavemeshd's
// `/api/v1` control plane: status, speaker and layout management,
// transport control, calibration, and stats, one subcommand per
// resource.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
)

func main() {
	var (
		daemon  = pflag.StringP("daemon", "d", "http://127.0.0.1:7373", "Base URL of the wavemeshd control plane.")
		timeout = pflag.DurationP("timeout", "T", 5*time.Second, "Request timeout.")
		help    = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, `wavemeshctl: control a wavemeshd instance

Usage:
  wavemeshctl [flags] <command> [args]

Commands:
  status                       Daemon status and uptime.
  info                         Daemon name, version, feature list.
  speaker list                 List known speakers.
  speaker discover             Trigger an mDNS discovery scan.
  speaker get <id>             Show one speaker.
  speaker remove <id>          Remove one speaker.
  layout get                   Show the active layout.
  layout set <preset>          Set the layout (stereo, 5.1, 7.1 or 7.1.4).
  transport play|pause|stop    Drive transport state.
  transport status             Show transport state.
  calibration start            Begin a calibration run.
  calibration status           Show calibration progress.
  calibration apply            Apply a calibration solution (reserved).
  stats                        Speaker and transport counters.

Flags:
`)
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help || pflag.NArg() == 0 {
		pflag.Usage()
		if *help {
			os.Exit(0)
		}
		os.Exit(1)
	}

	client := &apiClient{base: *daemon, http: &http.Client{Timeout: *timeout}}

	args := pflag.Args()
	if err := dispatch(client, args); err != nil {
		fmt.Fprintln(os.Stderr, "wavemeshctl:", err)
		os.Exit(1)
	}
}

func dispatch(c *apiClient, args []string) error {
	switch args[0] {
	case "status":
		return c.getPrint("/api/v1/status")
	case "info":
		return c.getPrint("/api/v1/info")
	case "speaker":
		return dispatchSpeaker(c, args[1:])
	case "layout":
		return dispatchLayout(c, args[1:])
	case "transport":
		return dispatchTransport(c, args[1:])
	case "calibration":
		return dispatchCalibration(c, args[1:])
	case "stats":
		return c.getPrint("/api/v1/stats")
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func dispatchSpeaker(c *apiClient, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("speaker: missing subcommand (list, discover, get, remove)")
	}
	switch args[0] {
	case "list":
		return c.getPrint("/api/v1/speakers")
	case "discover":
		return c.postPrint("/api/v1/speakers/discover", nil)
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("speaker get: missing id")
		}
		return c.getPrint("/api/v1/speakers/" + args[1])
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("speaker remove: missing id")
		}
		return c.deletePrint("/api/v1/speakers/" + args[1])
	default:
		return fmt.Errorf("speaker: unknown subcommand %q", args[0])
	}
}

func dispatchLayout(c *apiClient, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("layout: missing subcommand (get, set)")
	}
	switch args[0] {
	case "get":
		return c.getPrint("/api/v1/layout")
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("layout set: missing preset name")
		}
		body, _ := json.Marshal(map[string]string{"preset": args[1]})
		return c.postPrint("/api/v1/layout", body)
	default:
		return fmt.Errorf("layout: unknown subcommand %q", args[0])
	}
}

func dispatchTransport(c *apiClient, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("transport: missing subcommand (play, pause, stop, status)")
	}
	switch args[0] {
	case "play", "pause", "stop":
		return c.postPrint("/api/v1/transport/"+args[0], nil)
	case "status":
		return c.getPrint("/api/v1/transport/status")
	default:
		return fmt.Errorf("transport: unknown subcommand %q", args[0])
	}
}

func dispatchCalibration(c *apiClient, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("calibration: missing subcommand (start, status, apply)")
	}
	switch args[0] {
	case "start":
		return c.postPrint("/api/v1/calibration/start", nil)
	case "status":
		return c.getPrint("/api/v1/calibration/status")
	case "apply":
		return c.postPrint("/api/v1/calibration/apply", nil)
	default:
		return fmt.Errorf("calibration: unknown subcommand %q", args[0])
	}
}

// apiClient wraps the daemon's base URL and an http.Client, and prints
// every response body as indented JSON regardless of the verb used.
type apiClient struct {
	base string
	http *http.Client
}

func (c *apiClient) getPrint(path string) error {
	return c.doPrint(http.MethodGet, path, nil)
}

func (c *apiClient) postPrint(path string, body []byte) error {
	return c.doPrint(http.MethodPost, path, body)
}

func (c *apiClient) deletePrint(path string) error {
	return c.doPrint(http.MethodDelete, path, nil)
}

func (c *apiClient) doPrint(method, path string, body []byte) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		fmt.Fprintf(os.Stderr, "%s %s -> %d\n%s\n", method, path, resp.StatusCode, raw)
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}

	if len(raw) == 0 {
		fmt.Printf("%s %s -> %d\n", method, path, resp.StatusCode)
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
