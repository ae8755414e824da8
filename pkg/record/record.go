// Package record captures short MJPEG AVI clips from the frame source.
package record

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/icza/mjpeg"
	"go.uber.org/zap"

	"camnode/pkg/camera"
	"camnode/pkg/ov"
	"camnode/pkg/utils"
)

const (
	clipFPS = 15

	// pollDelay matches the stream loop's pacing; idleLimit bounds how long
	// a recording waits on a source that stopped producing.
	pollDelay = 30 * time.Millisecond
	idleLimit = 5 * time.Second
)

var (
	ErrBusy = errors.New("recording already in progress")
)

// Source is the slice of the frame source a recording needs.
type Source interface {
	Frame() (*camera.Frame, error)
	Release(f *camera.Frame)
	Dimensions() camera.Size
}

type Recorder struct {
	mu     sync.Mutex
	src    Source
	dir    string
	logger *zap.SugaredLogger
}

func New(src Source, dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Recorder{
		src:    src,
		dir:    dir,
		logger: utils.GetLogger(),
	}, nil
}

// Record pulls up to n frames from the source into a timestamped AVI clip.
// Only one recording runs at a time; the stream keeps its share of frames
// because both paths poll the same source.
func (r *Recorder) Record(n int) (*ov.Clip, error) {
	if !r.mu.TryLock() {
		return nil, ErrBusy
	}
	defer r.mu.Unlock()

	size := r.src.Dimensions()
	name := time.Now().Format("20060102-150405") + ".avi"
	path := filepath.Join(r.dir, name)

	aw, err := mjpeg.New(path, int32(size.Width), int32(size.Height), clipFPS)
	if err != nil {
		return nil, err
	}

	added, err := r.fill(aw, n)
	if cerr := aw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	r.logger.Infof("recorded %d frames to %s", added, name)

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &ov.Clip{
		Name:    name,
		Size:    humanize.Bytes(uint64(info.Size())),
		Frames:  added,
		ModTime: info.ModTime(),
	}, nil
}

func (r *Recorder) fill(aw mjpeg.AviWriter, n int) (int, error) {
	added := 0
	idle := time.Duration(0)
	for added < n {
		f, err := r.src.Frame()
		if err != nil {
			if errors.Is(err, camera.ErrNoFrame) {
				idle += pollDelay
				if idle > idleLimit {
					return added, fmt.Errorf("source idle for %s", idleLimit)
				}
				time.Sleep(pollDelay)
				continue
			}
			return added, err
		}
		idle = 0
		err = aw.AddFrame(f.Data)
		r.src.Release(f)
		if err != nil {
			return added, err
		}
		added++
		time.Sleep(pollDelay)
	}
	return added, nil
}

// Clips lists recorded clips, newest first.
func (r *Recorder) Clips() ([]ov.Clip, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	clips := make([]ov.Clip, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".avi") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		clips = append(clips, ov.Clip{
			Name:    e.Name(),
			Size:    humanize.Bytes(uint64(info.Size())),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(clips, func(i, j int) bool {
		return clips[i].ModTime.After(clips[j].ModTime)
	})
	return clips, nil
}
