package camera

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
	"go.uber.org/zap"

	"camnode/pkg/utils"
)

var (
	ErrStarted = errors.New("already started")

	// ErrNoFrame means the device has nothing pending right now. Callers
	// skip the iteration and try again; it is never surfaced to a client.
	ErrNoFrame = errors.New("no frame available")
)

var logger *zap.SugaredLogger

func init() {
	logger = utils.GetLogger()
}

// Frame is one encoded JPEG image. Buffers are pooled; hand them back with
// Release as soon as transmission is done, successful or not.
type Frame struct {
	Data []byte
}

// Camera owns the V4L2 device and the control-surface record. One mutex
// guards both: a parameter update and a device reconfigure never race, and
// the record only ever holds the last value the hardware accepted.
type Camera struct {
	devName string
	ctx     context.Context

	lock   sync.Mutex
	cancel context.CancelFunc
	dev    *device.Device
	frames <-chan []byte

	pool     sync.Pool
	settings Settings
}

func New(ctx context.Context, devName string) *Camera {
	return &Camera{
		ctx:      ctx,
		devName:  devName,
		settings: DefaultSettings(),
		pool: sync.Pool{
			New: func() any { return new(Frame) },
		},
	}
}

// Start opens the device at the current frameSize preset, begins streaming
// and pushes the whole settings record down to the hardware.
func (c *Camera) Start() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.start()
}

func (c *Camera) start() error {
	if c.dev != nil {
		return ErrStarted
	}
	size, ok := FrameSizeDims(c.settings.FrameSize)
	if !ok {
		size = frameSizes[SizeVGA]
	}
	logger.Infof("start camera %s at %s", c.devName, size)
	dev, err := device.Open(
		c.devName,
		device.WithBufferSize(1),
		device.WithPixFormat(v4l2.PixFormat{
			PixelFormat: v4l2.PixelFmtJPEG,
			Width:       uint32(size.Width),
			Height:      uint32(size.Height),
		}),
	)
	if err != nil {
		return err
	}

	newCtx, cancel := context.WithCancel(c.ctx)
	if err = dev.Start(newCtx); err != nil {
		cancel()
		_ = dev.Close()
		return err
	}
	c.dev = dev
	c.cancel = cancel
	c.frames = dev.GetOutput()

	c.applyAll()

	return nil
}

func (c *Camera) Stop() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stop()
}

func (c *Camera) stop() error {
	if c.cancel != nil {
		// cancel first so the driver goroutine reaches its ctx.Done branch
		// before we close the fd underneath it
		c.cancel()
		time.Sleep(100 * time.Millisecond)
		c.cancel = nil
	}
	if c.dev != nil {
		err := c.dev.Close()
		c.dev = nil
		c.frames = nil
		return err
	}
	return nil
}

// applyAll pushes every device-backed field to the hardware, best effort.
// Called on (re)open so a restart does not silently drop committed values.
func (c *Camera) applyAll() {
	for i := range fields {
		f := &fields[i]
		dv, ok := f.devValue(f.get(c.settings))
		if !ok {
			continue
		}
		if err := c.dev.SetControlValue(v4l2.CtrlID(f.cid), v4l2.CtrlValue(dv)); err != nil {
			logger.Warnf("apply %s: set ctrl(0x%08x) to %d, err: %s", f.name, f.cid, dv, err)
		}
	}
}

// Status returns a snapshot of the control-surface record. It never talks
// to the device.
func (c *Camera) Status() Settings {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.settings
}

// Set validates and applies one named parameter. The record is only
// committed after the hardware step succeeds; a rejected update leaves the
// field exactly as it was.
func (c *Camera) Set(name string, value int) int {
	f := fieldByName(name)
	if f == nil || !f.valid(value) {
		return ResultInvalid
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if f.name == "frameSize" {
		return c.setFrameSize(f, value)
	}

	if dv, ok := f.devValue(value); ok && c.dev != nil {
		if err := c.dev.SetControlValue(v4l2.CtrlID(f.cid), v4l2.CtrlValue(dv)); err != nil {
			logger.Warnf("set ctrl(0x%08x) to %d, err: %s", f.cid, dv, err)
			return ResultHardware
		}
	}
	f.commit(&c.settings, value)
	return ResultOK
}

// setFrameSize commits the preset and bounces the device so the new
// resolution takes effect; a failed restart rolls the preset back and
// tries to bring the old size up again.
func (c *Camera) setFrameSize(f *field, value int) int {
	old := c.settings.FrameSize
	f.commit(&c.settings, value)
	if c.dev == nil || value == old {
		return ResultOK
	}
	_ = c.stop()
	if err := c.start(); err != nil {
		logger.Errorf("restart at frame size %d: %s", value, err)
		c.settings.FrameSize = old
		if err := c.start(); err != nil {
			logger.Errorf("restart at previous frame size %d: %s", old, err)
		}
		return ResultHardware
	}
	return ResultOK
}

// Frame returns the next encoded image if one is pending. The payload is
// copied into a pooled buffer because the driver recycles its own.
func (c *Camera) Frame() (*Frame, error) {
	c.lock.Lock()
	frames := c.frames
	c.lock.Unlock()
	if frames == nil {
		return nil, ErrNoFrame
	}
	select {
	case raw, ok := <-frames:
		if !ok || len(raw) == 0 {
			return nil, ErrNoFrame
		}
		f := c.pool.Get().(*Frame)
		f.Data = append(f.Data[:0], raw...)
		return f, nil
	default:
		return nil, ErrNoFrame
	}
}

// Release hands a frame buffer back to the pool.
func (c *Camera) Release(f *Frame) {
	if f == nil {
		return
	}
	c.pool.Put(f)
}

// Dimensions reports the active preset's pixel size.
func (c *Camera) Dimensions() Size {
	c.lock.Lock()
	defer c.lock.Unlock()
	size, ok := FrameSizeDims(c.settings.FrameSize)
	if !ok {
		return frameSizes[SizeVGA]
	}
	return size
}
