// Package ps reads board vitals for the system status endpoint.
package ps

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type CPU struct {
	Percent float64 `json:"percent"`
}

type Memory struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"usedPercent"`
}

func CPUStatus() (CPU, error) {
	list, err := cpu.Percent(time.Millisecond*50, false)
	if err != nil {
		return CPU{}, err
	}
	return CPU{
		Percent: list[0],
	}, nil
}

func MemoryStatus() (Memory, error) {
	memory, err := mem.VirtualMemory()
	if err != nil {
		return Memory{}, err
	}
	return Memory{
		Total:       memory.Total,
		Used:        memory.Used,
		UsedPercent: memory.UsedPercent,
	}, nil
}

// Temperature returns the hottest sensor reading in degrees C. Boards
// report different sensor keys, so the max is the useful number for the
// thermal pacing story.
func Temperature() (float64, error) {
	sensors, err := host.SensorsTemperatures()
	if err != nil {
		return 0, err
	}
	max := 0.0
	for _, s := range sensors {
		if s.Temperature > max {
			max = s.Temperature
		}
	}
	return max, nil
}

func Uptime() (time.Duration, error) {
	secs, err := host.Uptime()
	if err != nil {
		return 0, err
	}
	return time.Duration(secs) * time.Second, nil
}
