// Command healthcheck is the container health probe. It exits 0 when the
// local server answers 200 on the probe path (default /readyz).
//
//	healthcheck          # readiness
//	healthcheck /livez   # liveness only
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/garyellow/degree-planner/internal/config"
)

const defaultPort = "10000"

func main() {
	path := "/readyz"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if err := probe(os.Getenv(config.EnvPort), path); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

func probe(port, path string) error {
	if port == "" {
		port = defaultPort
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://localhost:" + port + path)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	return nil
}
