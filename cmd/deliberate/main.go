// Command deliberate submits a thesis to a running deliberation API and
// polls the job until it reaches a terminal status, then prints the result
// as JSON.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type deliberateRequest struct {
	Thesis  string   `json:"thesis"`
	Context string   `json:"context,omitempty"`
	Models  []string `json:"models,omitempty"`
}

type jobCreatedResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	PollURL string `json:"poll_url"`
}

type jobStatusResponse struct {
	JobID        string          `json:"job_id"`
	Status       string          `json:"status"`
	CurrentRound int             `json:"current_round"`
	Result       json.RawMessage `json:"result"`
	Error        string          `json:"error"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		apiURL       string
		contextText  string
		modelsStr    string
		pollSeconds  int
		totalMinutes int
	)
	flag.StringVar(&apiURL, "api", "http://localhost:8080", "Base URL of the deliberation API")
	flag.StringVar(&contextText, "context", "", "Optional background context for the thesis")
	flag.StringVar(&modelsStr, "models", "", "Comma-separated list of exactly 3 models (defaults to server's trio)")
	flag.IntVar(&pollSeconds, "poll", 3, "Poll interval in seconds")
	flag.IntVar(&totalMinutes, "timeout", 20, "Overall timeout in minutes")
	flag.Parse()

	if flag.NArg() == 0 {
		return fmt.Errorf("no thesis provided: usage: deliberate [flags] <thesis>")
	}
	thesis := strings.Join(flag.Args(), " ")

	var models []string
	if modelsStr != "" {
		for _, m := range strings.Split(modelsStr, ",") {
			models = append(models, strings.TrimSpace(m))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(totalMinutes)*time.Minute)
	defer cancel()

	client := &http.Client{Timeout: 30 * time.Second}

	created, err := submit(ctx, client, apiURL, deliberateRequest{
		Thesis:  thesis,
		Context: contextText,
		Models:  models,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "job %s created, polling...\n", created.JobID)

	ticker := time.NewTicker(time.Duration(pollSeconds) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out waiting for job %s", created.JobID)
		case <-ticker.C:
		}

		status, err := poll(ctx, client, apiURL, created.JobID)
		if err != nil {
			return err
		}

		switch status.Status {
		case "completed":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(status.Result)
		case "failed":
			return fmt.Errorf("job %s failed: %s", created.JobID, status.Error)
		default:
			fmt.Fprintf(os.Stderr, "status=%s round=%d\n", status.Status, status.CurrentRound)
		}
	}
}

func submit(ctx context.Context, client *http.Client, apiURL string, req deliberateRequest) (*jobCreatedResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/v1/deliberate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submitting job: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("submit failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var created jobCreatedResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, fmt.Errorf("parsing submit response: %w", err)
	}
	return &created, nil
}

func poll(ctx context.Context, client *http.Client, apiURL, jobID string) (*jobStatusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"/v1/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("polling job: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var status jobStatusResponse
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("parsing poll response: %w", err)
	}
	return &status, nil
}
