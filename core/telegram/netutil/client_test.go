package netutil

import (
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"testing"
)

type flakyTransport struct {
	failures int
	calls    int
	bodies   []string
	err      error
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		f.bodies = append(f.bodies, string(data))
	}
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("ok")), Request: req}, nil
}

func TestRetryTransportReplaysBody(t *testing.T) {
	base := &flakyTransport{failures: 1, err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}}
	rt := &retryTransport{base: base, maxRetries: 2}

	req, err := http.NewRequest(http.MethodPost, "http://detector/predict", bytes.NewReader([]byte("payload")))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if base.calls != 2 {
		t.Fatalf("calls = %d, want 2", base.calls)
	}
	if len(base.bodies) != 2 || base.bodies[1] != "payload" {
		t.Fatalf("bodies = %q", base.bodies)
	}
}

func TestRetryTransportDoesNotRepeatSentPost(t *testing.T) {
	for name, failure := range map[string]error{
		"reset":   syscall.ECONNRESET,
		"eof":     io.ErrUnexpectedEOF,
		"timeout": &net.OpError{Op: "read", Net: "tcp", Err: timeoutErr{}},
	} {
		t.Run(name, func(t *testing.T) {
			base := &flakyTransport{failures: 1, err: failure}
			rt := &retryTransport{base: base, maxRetries: 2}

			req, _ := http.NewRequest(http.MethodPost, "http://detector/predict", bytes.NewReader([]byte("payload")))
			if _, err := rt.RoundTrip(req); !errors.Is(err, failure) {
				t.Fatalf("err = %v", err)
			}
			if base.calls != 1 {
				t.Fatalf("calls = %d, want 1", base.calls)
			}
		})
	}
}

func TestRetryTransportRepeatsIdempotentAfterReset(t *testing.T) {
	base := &flakyTransport{failures: 1, err: syscall.ECONNRESET}
	rt := &retryTransport{base: base, maxRetries: 2}

	req, _ := http.NewRequest(http.MethodGet, "http://detector/health", nil)
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if base.calls != 2 {
		t.Fatalf("calls = %d, want 2", base.calls)
	}
}

func TestNotSent(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{syscall.ECONNREFUSED, true},
		{&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")}, true},
		{&net.OpError{Op: "read", Net: "tcp", Err: syscall.ECONNRESET}, false},
		{io.ErrUnexpectedEOF, false},
	}
	for _, tc := range cases {
		if got := NotSent(tc.err); got != tc.want {
			t.Fatalf("NotSent(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryTransportStopsOnPermanentError(t *testing.T) {
	base := &flakyTransport{failures: 5, err: errors.New("tls: bad certificate")}
	rt := &retryTransport{base: base, maxRetries: 3}

	req, _ := http.NewRequest(http.MethodGet, "http://detector/health", nil)
	if _, err := rt.RoundTrip(req); err == nil {
		t.Fatal("expected error")
	}
	if base.calls != 1 {
		t.Fatalf("calls = %d, want 1", base.calls)
	}
}

func TestRetryTransportGivesUp(t *testing.T) {
	base := &flakyTransport{failures: 5, err: syscall.ECONNREFUSED}
	rt := &retryTransport{base: base, maxRetries: 2}

	req, _ := http.NewRequest(http.MethodGet, "http://detector/health", nil)
	if _, err := rt.RoundTrip(req); !errors.Is(err, syscall.ECONNREFUSED) {
		t.Fatalf("err = %v", err)
	}
	if base.calls != 3 {
		t.Fatalf("calls = %d, want 3", base.calls)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(ClientOptions{Retries: -1})
	if c.Timeout != defaultClientTimeout {
		t.Fatalf("timeout = %v", c.Timeout)
	}
	rt, ok := c.Transport.(*retryTransport)
	if !ok || rt.maxRetries != 0 {
		t.Fatalf("transport = %#v", c.Transport)
	}
}
