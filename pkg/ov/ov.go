// Package ov holds the view objects returned by the /api surface.
package ov

import (
	"time"

	"camnode/pkg/utils/ps"
)

type SystemStatus struct {
	CPU         ps.CPU    `json:"cpu"`
	Memory      ps.Memory `json:"memory"`
	MemoryUsed  string    `json:"memoryUsed"`
	Temperature float64   `json:"temperatureC"`
	Uptime      string    `json:"uptime"`
}

type Clip struct {
	Name    string    `json:"name"`
	Size    string    `json:"size"`
	Frames  int       `json:"frames,omitempty"`
	ModTime time.Time `json:"modTime"`
}
