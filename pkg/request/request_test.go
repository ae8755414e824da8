package request

import (
	"errors"
	"net"
	"testing"
	"time"
)

func readFrom(t *testing.T, chunks ...string) (*Request, error) {
	t.Helper()
	client, server := net.Pipe()
	defer client.Close()

	go func() {
		for _, c := range chunks {
			if _, err := client.Write([]byte(c)); err != nil {
				return
			}
		}
	}()

	defer server.Close()
	return Read(server)
}

func TestReadSimpleRequest(t *testing.T) {
	req, err := readFrom(t, "GET /camera?brightness=2 HTTP/1.1\r\nHost: x\r\n\r\n")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if req.Method != "GET" {
		t.Errorf("method: got %q, want GET", req.Method)
	}
	if req.Path != "/camera" {
		t.Errorf("path: got %q, want /camera", req.Path)
	}
	if req.RawQuery != "brightness=2" {
		t.Errorf("query: got %q, want brightness=2", req.RawQuery)
	}
}

func TestReadDribbledRequest(t *testing.T) {
	req, err := readFrom(t, "GET /str", "eam HTTP/1.1\r\n", "Accept: */*\r\n", "\r\n")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if req.Path != "/stream" {
		t.Errorf("path: got %q, want /stream", req.Path)
	}
	if req.RawQuery != "" {
		t.Errorf("query: got %q, want empty", req.RawQuery)
	}
}

func TestReadBareLFTerminator(t *testing.T) {
	req, err := readFrom(t, "GET / HTTP/1.1\n\n")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if req.Path != "/" {
		t.Errorf("path: got %q, want /", req.Path)
	}
}

func TestReadOversizedHead(t *testing.T) {
	junk := make([]byte, MaxHeaderBytes+100)
	for i := range junk {
		junk[i] = 'a'
	}
	start := time.Now()
	_, err := readFrom(t, "GET / HTTP/1.1\r\nX-Junk: "+string(junk))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err: got %v, want ErrTooLarge", err)
	}
	// the cap must trip before the timeout does
	if elapsed := time.Since(start); elapsed > HeaderTimeout {
		t.Errorf("cap took %s, should abort before the %s timeout", elapsed, HeaderTimeout)
	}
}

func TestReadTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the header timeout")
	}
	start := time.Now()
	_, err := readFrom(t, "GET / HTT")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	var netErr net.Error
	if !errors.As(err, &netErr) || !netErr.Timeout() {
		t.Fatalf("err: got %v, want a net timeout", err)
	}
	if elapsed := time.Since(start); elapsed < HeaderTimeout-100*time.Millisecond {
		t.Errorf("timed out after %s, want about %s", elapsed, HeaderTimeout)
	}
}

func TestReadMalformed(t *testing.T) {
	cases := []string{
		"GARBAGE\r\n\r\n",
		"GET relative HTTP/1.1\r\n\r\n",
		"\r\n\r\n",
	}
	for _, head := range cases {
		if _, err := readFrom(t, head); !errors.Is(err, ErrMalformed) {
			t.Errorf("head %q: got %v, want ErrMalformed", head, err)
		}
	}
}

func TestFirstPair(t *testing.T) {
	cases := []struct {
		raw   string
		name  string
		value string
		ok    bool
	}{
		{"brightness=2", "brightness", "2", true},
		{"brightness=2&contrast=1", "brightness", "2", true},
		{"state=", "state", "", true},
		{"state", "state", "", true},
		{"", "", "", false},
		{"=5", "", "", false},
	}
	for _, tc := range cases {
		name, value, ok := FirstPair(tc.raw)
		if name != tc.name || value != tc.value || ok != tc.ok {
			t.Errorf("FirstPair(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.raw, name, value, ok, tc.name, tc.value, tc.ok)
		}
	}
}

func TestPermissiveInt(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"0", 0},
		{"42", 42},
		{"-2", -2},
		{"+7", 7},
		{"12abc", 12},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{"2.5", 2},
	}
	for _, tc := range cases {
		if got := PermissiveInt(tc.in); got != tc.want {
			t.Errorf("PermissiveInt(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
