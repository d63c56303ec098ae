package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/hive-mind/coordinator/internal/instance"
)

// resolvePort finds the daemon's listening port: --port wins, then the
// running instance's pidfile. With neither, it returns an error rather than
// guessing the default port.
func resolvePort() (int, error) {
	if flagPort > 0 {
		return flagPort, nil
	}

	dataDir, err := resolveDataDir()
	if err != nil {
		return 0, err
	}
	mgr := instance.NewManager(filepath.Join(dataDir, "hivectl.pid"), "", defaultDaemonPort)
	info, err := mgr.CheckExistingInstance()
	if err != nil {
		return 0, runtimeErrf("check running instance: %w", err)
	}
	if info == nil {
		return 0, runtimeErrf("no running hivectl daemon found (run `hivectl spawn <objective>` first, or pass --port)")
	}
	return info.Port, nil
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient() (*apiClient, error) {
	port, err := resolvePort()
	if err != nil {
		return nil, err
	}
	return &apiClient{
		baseURL: fmt.Sprintf("http://127.0.0.1:%d/api", port),
		http:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (c *apiClient) do(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return runtimeErrf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return runtimeErrf("build request: %w", err)
	}
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return runtimeErrf("request to daemon failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return runtimeErrf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != "" {
			if resp.StatusCode == http.StatusBadRequest {
				return usageErrf("%s", apiErr.Error)
			}
			return runtimeErrf("%s", apiErr.Error)
		}
		return runtimeErrf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return runtimeErrf("decode response: %w", err)
	}
	return nil
}

func printJSON(v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return runtimeErrf("encode output: %w", err)
	}
	fmt.Println(string(raw))
	return nil
}
