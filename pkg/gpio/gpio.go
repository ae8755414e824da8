// Package gpio drives the board's indicator LED through a sysfs value
// file. The web context is its only writer.
package gpio

import (
	"os"
	"sync"
)

// Output is a single binary digital output.
type Output interface {
	Set(on bool) error
	Get() bool
}

// Line writes "1"/"0" to an exported GPIO value file
// (e.g. /sys/class/gpio/gpio4/value). The last written level is cached;
// the kernel file is write-only for our purposes.
type Line struct {
	mu   sync.Mutex
	path string
	on   bool
}

func OpenLine(path string) (*Line, error) {
	l := &Line{path: path}
	// drive a known level at boot
	if err := l.Set(false); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Line) Set(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	b := []byte("0")
	if on {
		b = []byte("1")
	}
	if err := os.WriteFile(l.path, b, 0644); err != nil {
		return err
	}
	l.on = on
	return nil
}

func (l *Line) Get() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// Memory is an Output with no hardware behind it, for boards without the
// indicator wired and for tests.
type Memory struct {
	mu sync.Mutex
	on bool
}

func (m *Memory) Set(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
	return nil
}

func (m *Memory) Get() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on
}
