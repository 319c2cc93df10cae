package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seantiz/tempo/internal/model"
)

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeRun(t *testing.T, resp *http.Response) model.Run {
	t.Helper()
	var run model.Run
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return run
}

func TestCreateRunSuccess(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/runs",
		`{"workload":"sleep","environment":"noop","workload_params":{"duration":"10ms"},"suite":"api"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	run := decodeRun(t, resp)
	if run.Status != model.StatusSuccess {
		t.Errorf("status = %q, want success", run.Status)
	}
	if run.Name != "sleep" {
		t.Errorf("name = %q, want workload name as default", run.Name)
	}
	if run.Suite != "api" {
		t.Errorf("suite = %q, want api", run.Suite)
	}
	if run.DurationS == nil {
		t.Error("duration_s missing")
	}
}

func TestCreateRunTimeout(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/runs",
		`{"workload":"sleep","environment":"noop","workload_params":{"duration":"5s"},"timeout_s":0.05}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	run := decodeRun(t, resp)
	if run.Status != model.StatusTimeout {
		t.Errorf("status = %q, want timeout", run.Status)
	}
}

func TestCreateRunFailureIncludesTraceback(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/runs",
		`{"workload":"fail","environment":"noop","workload_params":{"message":"boom"}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	run := decodeRun(t, resp)
	if run.Status != model.StatusFailure {
		t.Errorf("status = %q, want failure", run.Status)
	}
	if run.Error != "boom" {
		t.Errorf("error = %q, want boom", run.Error)
	}
	if !strings.Contains(run.Traceback, "fail.go") {
		t.Errorf("traceback does not point at the workload: %q", run.Traceback)
	}
}

func TestCreateRunValidation(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing workload", `{"name":"x"}`, http.StatusBadRequest},
		{"negative timeout", `{"workload":"sleep","timeout_s":-1}`, http.StatusBadRequest},
		{"unknown workload", `{"workload":"nope"}`, http.StatusUnprocessableEntity},
		{"unknown environment", `{"workload":"sleep","environment":"vm"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/v1/runs", "/v1/runs/async"} {
				resp := postJSON(t, ts.URL+path, tt.body)
				if resp.StatusCode != tt.want {
					t.Errorf("%s: status = %d, want %d", path, resp.StatusCode, tt.want)
				}
			}
		})
	}
}

func TestAsyncRun(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/v1/runs/async",
		`{"name":"bg","workload":"sleep","environment":"noop","workload_params":{"duration":"20ms"}}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	run := decodeRun(t, resp)
	if run.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", run.Status)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := http.Get(ts.URL + "/v1/runs/" + run.ID)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		r := decodeRun(t, got)
		got.Body.Close()
		if r.Status == model.StatusSuccess {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("async run did not succeed in time")
}

func TestGetRunNotFound(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs/missing")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestListRunsPagination(t *testing.T) {
	srv := newTestServer(t)
	for range 5 {
		createTestRun(t, srv, "sleep")
	}

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs?limit=2&offset=1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body listRunsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 5 {
		t.Errorf("total = %d, want 5", body.Total)
	}
	if len(body.Runs) != 2 {
		t.Errorf("got %d runs, want 2", len(body.Runs))
	}
	if body.Limit != 2 || body.Offset != 1 {
		t.Errorf("limit/offset = %d/%d, want 2/1", body.Limit, body.Offset)
	}
}

func TestListRunsDefaults(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/runs?limit=1000&offset=-3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body listRunsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Limit != defaultListLimit || body.Offset != 0 {
		t.Errorf("limit/offset = %d/%d, want %d/0", body.Limit, body.Offset, defaultListLimit)
	}
	if body.Runs == nil {
		t.Error("runs should be an empty list, not null")
	}
}

func TestCatalog(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/catalog")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	var body catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	var names []string
	for _, w := range body.Workloads {
		names = append(names, w.Name)
	}
	if got := strings.Join(names, ","); got != "command,compute,fail,sleep" {
		t.Errorf("workloads = %s", got)
	}
	if len(body.Environments) != 3 {
		t.Errorf("got %d environments, want 3", len(body.Environments))
	}
	if body.DefaultTimeout != 180 {
		t.Errorf("default_timeout_s = %v, want 180", body.DefaultTimeout)
	}
}
