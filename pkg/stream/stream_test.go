package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"camnode/pkg/camera"
)

// fakeSource hands out copies of a fixed payload and counts the get/release
// balance, which is the property the disconnect tests care about.
type fakeSource struct {
	mu       sync.Mutex
	payload  []byte
	acquired int
	released int
}

func (f *fakeSource) Frame() (*camera.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired++
	return &camera.Frame{Data: append([]byte(nil), f.payload...)}, nil
}

func (f *fakeSource) Release(fr *camera.Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released++
}

func (f *fakeSource) balanced() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired > 0 && f.acquired == f.released
}

func startServer(t *testing.T, src Source) (addr string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := NewServer(src).ServeListener(ctx, ln); err != nil {
			t.Errorf("serve: %v", err)
		}
	}()
	return ln.Addr().String(), func() {
		cancel()
		<-done
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStreamFirstPart(t *testing.T) {
	payload := bytes.Repeat([]byte{0xff, 0xd8, 0xaa, 0xbb}, 2500) // 10 KB, spans chunks
	src := &fakeSource{payload: payload}
	addr, stop := startServer(t, src)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("GET /stream HTTP/1.1\r\nHost: x\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}

	r := bufio.NewReader(conn)
	status, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if !strings.HasPrefix(status, "HTTP/1.1 200 ") {
		t.Fatalf("status line: %q", status)
	}
	headers := readHeaders(t, r)
	if got := headers["content-type"]; got != "multipart/x-mixed-replace; boundary="+Boundary {
		t.Errorf("content type: %q", got)
	}
	if got := headers["connection"]; got != "close" {
		t.Errorf("connection header: %q", got)
	}

	// first part
	delim, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read boundary: %v", err)
	}
	if strings.TrimSpace(delim) != "--"+Boundary {
		t.Fatalf("boundary: %q", delim)
	}
	partHeaders := readHeaders(t, r)
	if got := partHeaders["content-type"]; got != "image/jpeg" {
		t.Errorf("part content type: %q", got)
	}
	want := fmt.Sprintf("%d", len(payload))
	if got := partHeaders["content-length"]; got != want {
		t.Fatalf("part content length: got %q, want %q", got, want)
	}

	body := make([]byte, len(payload))
	if _, err := io.ReadFull(r, body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Equal(body, payload) {
		t.Error("frame body does not match the source payload")
	}
}

func TestStreamReleasesOnMidFrameDisconnect(t *testing.T) {
	// large enough that the client is gone before the part finishes
	src := &fakeSource{payload: bytes.Repeat([]byte{0xab}, 1<<20)}
	addr, stop := startServer(t, src)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if _, err := conn.Write([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write request: %v", err)
	}
	// read a little, then slam the door mid-frame
	buf := make([]byte, 512)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	conn.Close()

	waitFor(t, "frame release", src.balanced)

	// the accept loop must still be alive
	conn2, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial after disconnect: %v", err)
	}
	defer conn2.Close()
	if _, err := conn2.Write([]byte("GET / HTTP/1.1\r\n\r\n")); err != nil {
		t.Fatalf("write second request: %v", err)
	}
	line, err := bufio.NewReader(conn2).ReadString('\n')
	if err != nil {
		t.Fatalf("read second status: %v", err)
	}
	if !strings.HasPrefix(line, "HTTP/1.1 200 ") {
		t.Errorf("second status line: %q", line)
	}
}

func TestStreamDropsOversizedRequest(t *testing.T) {
	src := &fakeSource{payload: []byte{0xff}}
	addr, stop := startServer(t, src)
	defer stop()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	junk := bytes.Repeat([]byte{'x'}, 4096)
	// the server may close before the write finishes; that is the point
	_, _ = conn.Write(append([]byte("GET / HTTP/1.1\r\nX-Junk: "), junk...))

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	n, err := conn.Read(make([]byte, 1))
	if n != 0 || err == nil {
		t.Fatalf("expected close with zero bytes, got n=%d err=%v", n, err)
	}
}

func readHeaders(t *testing.T, r *bufio.Reader) map[string]string {
	t.Helper()
	headers := map[string]string{}
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return headers
		}
		name, value, _ := strings.Cut(line, ":")
		headers[strings.ToLower(name)] = strings.TrimSpace(value)
	}
}
