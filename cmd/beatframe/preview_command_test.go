package main

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"beatframe/internal/preview"
)

var previewURLPattern = regexp.MustCompile(`Preview:\s+(http://\S+)`)

func TestPreviewServesPlanUntilCancelled(t *testing.T) {
	env := setupCLITestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stdout syncBuffer
	done := make(chan error, 1)
	go func() {
		cmd := newRootCommand()
		cmd.SetOut(&stdout)
		cmd.SetErr(&syncBuffer{})
		cmd.SetArgs([]string{"--config", env.configPath, "preview", env.audioPath, env.imageDir, "--bind", "127.0.0.1:0"})
		done <- cmd.ExecuteContext(ctx)
	}()

	var url string
	waitFor(t, 10*time.Second, func() bool {
		if m := previewURLPattern.FindStringSubmatch(stdout.String()); m != nil {
			url = m[1]
			return true
		}
		return false
	})

	resp, err := http.Get(url + "api/plan")
	if err != nil {
		t.Fatalf("GET plan: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var plan preview.PlanResponse
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		t.Fatalf("decode plan: %v", err)
	}
	if len(plan.Slides) != 8 {
		t.Fatalf("expected 8 slides, got %d", len(plan.Slides))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("preview returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not stop after cancellation")
	}
}
