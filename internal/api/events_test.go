package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seantiz/tempo/internal/model"
)

func TestStreamEventsNotFound(t *testing.T) {
	srv := newTestServer(t)

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs/nonexistent/events")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestStreamEventsFinishedRun(t *testing.T) {
	srv := newTestServer(t)

	r := createTestRun(t, srv, "sleep")
	if err := srv.store.UpdateRunStatus(context.Background(), r.ID, model.StatusRunning); err != nil {
		t.Fatalf("pending→running: %v", err)
	}
	if err := srv.store.UpdateRunStatus(context.Background(), r.ID, model.StatusTimeout); err != nil {
		t.Fatalf("running→timeout: %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs/" + r.ID + "/events")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}
}

// openStream starts an SSE request for run id and returns the response once
// the handler has subscribed.
func openStream(t *testing.T, ts *httptest.Server, id string) *http.Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/v1/runs/"+id+"/events", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	return resp
}

func TestStreamEventsReceivesEvents(t *testing.T) {
	srv := newTestServer(t)
	r := createTestRun(t, srv, "sleep")

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := openStream(t, ts, r.ID)

	broker := srv.engine.Broker()
	broker.Publish(r.ID, "entering environment noop")
	broker.Publish(r.ID, "outcome: success (1ms)")
	broker.Close(r.ID)

	scanner := bufio.NewScanner(resp.Body)
	var events []string
	var sawDone bool
	for scanner.Scan() {
		line := scanner.Text()
		if data, ok := strings.CutPrefix(line, "data: "); ok && data != "stream complete" {
			events = append(events, data)
		}
		if line == "event: done" {
			sawDone = true
		}
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %v", len(events), events)
	}
	if events[0] != "entering environment noop" {
		t.Errorf("event[0] = %q", events[0])
	}
	if events[1] != "outcome: success (1ms)" {
		t.Errorf("event[1] = %q", events[1])
	}
	if !sawDone {
		t.Error("stream ended without a done event")
	}
}

func TestStreamEventsMultiLineData(t *testing.T) {
	srv := newTestServer(t)
	r := createTestRun(t, srv, "fail")

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := openStream(t, ts, r.ID)

	// A failure outcome carries a multi-line traceback.
	broker := srv.engine.Broker()
	broker.Publish(r.ID, "outcome: failure\n  at fail.go:42\n  at executor.go:10")
	broker.Close(r.ID)

	// Consecutive "data:" lines form one event, separated by blank lines.
	scanner := bufio.NewScanner(resp.Body)
	var events []string
	var current []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			break
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			current = append(current, data)
		} else if line == "" && len(current) > 0 {
			events = append(events, strings.Join(current, "\n"))
			current = nil
		}
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(events), events)
	}
	want := "outcome: failure\n  at fail.go:42\n  at executor.go:10"
	if events[0] != want {
		t.Errorf("event = %q, want %q", events[0], want)
	}
}

func TestEventHistory(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	run, err := srv.engine.Run(context.Background(), "", model.Descriptor{
		Name:           "s",
		Workload:       "sleep",
		Environment:    "noop",
		WorkloadParams: map[string]any{"duration": "1ms"},
	}, 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	resp, err := http.Get(ts.URL + "/v1/runs/" + run.ID + "/events/history")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body eventHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RunID != run.ID {
		t.Errorf("run_id = %q, want %q", body.RunID, run.ID)
	}
	if len(body.Events) < 3 {
		t.Fatalf("got %d events, want at least 3", len(body.Events))
	}
	for i, ev := range body.Events {
		if ev.Seq != i {
			t.Errorf("events[%d].seq = %d", i, ev.Seq)
		}
	}
	if last := body.Events[len(body.Events)-1].Line; !strings.HasPrefix(last, "outcome: success") {
		t.Errorf("last event = %q, want outcome", last)
	}
}

func TestEventHistoryNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs/missing/events/history")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
