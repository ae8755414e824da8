// Package stream serves the live MJPEG feed on its own port. Responses are
// written to the raw connection so each frame part carries an exact
// Content-Length and the body goes out in bounded chunks.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"camnode/pkg/camera"
	"camnode/pkg/request"
	"camnode/pkg/utils"
)

const (
	// Boundary is the multipart delimiter; the control page hardcodes it.
	Boundary = "frame"

	// chunkSize bounds a single write so a dead client is noticed
	// mid-frame instead of after it.
	chunkSize = 4096

	// frameDelay paces the loop; coolPause every coolEvery frames keeps
	// thermal load bounded on passive boards. Neither is a frame-rate
	// promise.
	frameDelay = 30 * time.Millisecond
	coolEvery  = 50
	coolPause  = 500 * time.Millisecond

	chunkTimeout = 5 * time.Second
	maxClients   = 4
)

var preamble = []byte("HTTP/1.1 200 OK\r\n" +
	"Access-Control-Allow-Origin: *\r\n" +
	"Connection: close\r\n" +
	"Cache-Control: no-cache\r\n" +
	"Content-Type: multipart/x-mixed-replace; boundary=" + Boundary + "\r\n" +
	"\r\n")

// Source yields encoded frames on demand. Frames must be released after
// transmission whether or not the write succeeded.
type Source interface {
	Frame() (*camera.Frame, error)
	Release(f *camera.Frame)
}

type Server struct {
	src    Source
	logger *zap.SugaredLogger
}

func NewServer(src Source) *Server {
	return &Server{
		src:    src,
		logger: utils.GetLogger(),
	}
}

// Serve accepts stream clients until ctx is cancelled. The listener caps
// concurrent clients; each connection gets one unbounded multipart
// response and nothing else.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on a caller-supplied listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	ln = netutil.LimitListener(ln, maxClients)
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	s.logger.Infof("stream listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.handle(ctx, conn)
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	req, err := request.Read(conn)
	if err != nil {
		// oversized, timed out or malformed: close with zero bytes written
		s.logger.Debugf("stream %s: drop request: %s", conn.RemoteAddr(), err)
		return
	}
	s.logger.Infof("stream client %s: %s %s", conn.RemoteAddr(), req.Method, req.Path)

	if err := writeAll(conn, preamble); err != nil {
		return
	}

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		f, err := s.src.Frame()
		if err != nil {
			if errors.Is(err, camera.ErrNoFrame) {
				// nothing pending, try again next iteration
				time.Sleep(frameDelay)
				continue
			}
			s.logger.Warnf("stream %s: frame: %s", conn.RemoteAddr(), err)
			return
		}

		err = s.writePart(conn, f.Data)
		s.src.Release(f)
		if err != nil {
			s.logger.Infof("stream client %s gone: %s", conn.RemoteAddr(), err)
			return
		}

		frames++
		time.Sleep(frameDelay)
		if frames%coolEvery == 0 {
			time.Sleep(coolPause)
		}
	}
}

// writePart emits one boundary-delimited frame. The body goes out in
// chunkSize slices with a fresh deadline per slice, so a mid-frame
// disconnect truncates quickly instead of blocking the loop.
func (s *Server) writePart(conn net.Conn, data []byte) error {
	header := fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n",
		Boundary, len(data))
	if err := writeAll(conn, []byte(header)); err != nil {
		return err
	}
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		if err := writeAll(conn, data[off:end]); err != nil {
			return err
		}
	}
	return writeAll(conn, []byte("\r\n"))
}

func writeAll(conn net.Conn, b []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(chunkTimeout)); err != nil {
		return err
	}
	_, err := conn.Write(b)
	return err
}
