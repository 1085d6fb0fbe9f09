// Healthcheck probe for container orchestrators. Exits 0 when the API
// answers its health endpoint, 1 otherwise.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	probeTimeout = 2 * time.Second
	fallbackAddr = "127.0.0.1:8080"
)

func main() {
	if !healthy() {
		os.Exit(1)
	}
}

func healthy() bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	url := "http://" + probeAddr(os.Getenv("PORTALACCESS_LISTEN_ADDR")) + "/api/v1/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// probeAddr rewrites a bind-all listen address to loopback. The probe runs
// inside the same container as the server, so loopback is always reachable.
func probeAddr(raw string) string {
	if raw == "" {
		return fallbackAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return fallbackAddr
	}

	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
