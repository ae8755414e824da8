// Package request reads and tokenizes a single HTTP/1.1 request head from a
// raw connection. It exists for the stream port, which writes its response
// bytes by hand; the control port gets the same limits through http.Server.
package request

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"time"
)

const (
	// MaxHeaderBytes caps request-head accumulation. Past it the connection
	// is dropped with no response.
	MaxHeaderBytes = 1024

	// HeaderTimeout bounds how long a client may take to finish its headers.
	HeaderTimeout = 2000 * time.Millisecond
)

var (
	ErrTooLarge  = errors.New("request head exceeds size cap")
	ErrMalformed = errors.New("malformed request line")

	crlf2 = []byte("\r\n\r\n")
	lf2   = []byte("\n\n")
)

// Request is a tokenized request line. Headers beyond the first line are
// consumed and discarded; nothing in the serving surface depends on them.
type Request struct {
	Method   string
	Path     string
	RawQuery string
}

// Read accumulates bytes from conn until the blank line ending the headers,
// then tokenizes the request line. It returns ErrTooLarge once accumulation
// passes MaxHeaderBytes and a timeout error if the blank line does not
// arrive within HeaderTimeout. In both cases nothing has been written back.
func Read(conn net.Conn) (*Request, error) {
	// the clock starts at accept, not at the first byte; strictly tighter
	// than clients were promised, never looser
	if err := conn.SetReadDeadline(time.Now().Add(HeaderTimeout)); err != nil {
		return nil, err
	}
	defer conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 0, 256)
	tmp := make([]byte, 256)
	for {
		n, err := conn.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
			if len(buf) > MaxHeaderBytes {
				return nil, ErrTooLarge
			}
			if bytes.Contains(buf, crlf2) || bytes.Contains(buf, lf2) {
				return parse(buf)
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

func parse(head []byte) (*Request, error) {
	line, _, ok := bytes.Cut(head, []byte("\n"))
	if !ok {
		return nil, ErrMalformed
	}
	fields := strings.Fields(string(line))
	if len(fields) < 2 {
		return nil, ErrMalformed
	}
	target := fields[1]
	path, query, _ := strings.Cut(target, "?")
	if path == "" || path[0] != '/' {
		return nil, ErrMalformed
	}
	return &Request{
		Method:   fields[0],
		Path:     path,
		RawQuery: query,
	}, nil
}

// FirstPair returns the first name=value pair of a query string. Additional
// pairs are ignored on purpose: the control protocol carries exactly one
// parameter per request.
func FirstPair(rawQuery string) (name, value string, ok bool) {
	pair, _, _ := strings.Cut(rawQuery, "&")
	if pair == "" {
		return "", "", false
	}
	name, value, _ = strings.Cut(pair, "=")
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

// PermissiveInt parses a decimal prefix the way C atoi does: an optional
// sign followed by digits, anything else yields 0. It never fails; clients
// sending garbage get the zero value, not an error.
func PermissiveInt(s string) int {
	i, neg := 0, false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	n := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}
