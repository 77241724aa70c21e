package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestParsePingResponse(t *testing.T) {
	resp, err := ParsePingResponse([]byte(`{"version":"9.2.0","active_node":"awx","ha":false}`))
	if err != nil {
		t.Fatalf("ParsePingResponse: %v", err)
	}
	if resp.Version != "9.2.0" || resp.ActiveNode != "awx" {
		t.Errorf("parsed %+v", resp)
	}
}

func TestParsePingResponse_Empty(t *testing.T) {
	_, err := ParsePingResponse([]byte(`{}`))
	if err == nil {
		t.Error("expected error for empty version")
	}
}

func TestParsePingResponse_InvalidJSON(t *testing.T) {
	_, err := ParsePingResponse([]byte(`not json`))
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSameMajor(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"9.2.0", "9.0.1", true},
		{"17.1.0", "9.2.0", false},
		{"devel", "9.2.0", true},
	}
	for _, tc := range tests {
		if got := SameMajor(tc.a, tc.b); got != tc.want {
			t.Errorf("SameMajor(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestPing(t *testing.T) {
	var schemeChecks int32
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" || r.URL.Path == "/api/" {
			atomic.AddInt32(&schemeChecks, 1)
		}
		if r.URL.Path == "/api/v2/ping/" {
			w.Write([]byte(`{"version":"9.2.0"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	resp, res := newTestClient(t, ts).Ping(context.Background())
	if !res.OK() {
		t.Fatalf("Ping failed: %+v", res)
	}
	if resp.Version != "9.2.0" || !resp.Secure {
		t.Errorf("ping = %+v", resp)
	}
	if n := atomic.LoadInt32(&schemeChecks); n != 1 {
		t.Errorf("scheme checked %d times per ping, want 1", n)
	}
}

func TestPing_Unparseable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ha":true}`))
	}))
	defer ts.Close()

	resp, res := newTestClient(t, ts).Ping(context.Background())
	if !res.OK() {
		t.Fatalf("Ping failed: %+v", res)
	}
	if resp.Version != "" || resp.Secure {
		t.Errorf("ping = %+v, want empty version over http", resp)
	}
}

func TestPing_Failure(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api" {
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	resp, res := newTestClient(t, ts).Ping(context.Background())
	if resp != nil || res.OK() || res.Code != http.StatusForbidden {
		t.Errorf("Ping = %+v, %+v", resp, res)
	}
}
