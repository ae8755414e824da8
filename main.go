package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"

	"camnode/pkg/camera"
	"camnode/pkg/gpio"
	"camnode/pkg/record"
	"camnode/pkg/stream"
	"camnode/pkg/utils"
	"camnode/pkg/web"
)

var (
	port       = flag.Int("port", 8080, "control port")
	streamPort = flag.Int("stream-port", 8081, "stream port")
	devName    = flag.String("device", "/dev/video0", "camera device")
	clipsDir   = flag.String("clips", "./clips", "clip output directory")
	ledPath    = flag.String("led", "", "GPIO value file for the indicator (empty = in-memory)")
	netTimeout = flag.Duration("net-timeout", time.Minute, "how long to wait for a network link")
	ntpHost    = flag.String("ntp", "pool.ntp.org", "NTP host for the boot clock check (empty = skip)")

	logger *zap.SugaredLogger
)

func init() {
	logger = utils.GetLogger()
	flag.Parse()
}

func main() {
	defer logger.Sync()

	// no link, no serving capability: bail and let the supervisor restart us
	ip, err := utils.WaitForLink(*netTimeout)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Infof("link up at %s", ip)

	if *ntpHost != "" {
		if offset, err := utils.SyncClock(*ntpHost); err != nil {
			logger.Warnf("ntp check against %s failed: %s", *ntpHost, err)
		} else {
			logger.Infof("clock offset vs %s: %s", *ntpHost, offset)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cam := camera.New(ctx, *devName)
	if err := cam.Start(); err != nil {
		logger.Fatal(err)
	}
	defer cam.Stop()

	var led gpio.Output
	if *ledPath != "" {
		line, err := gpio.OpenLine(*ledPath)
		if err != nil {
			logger.Warnf("open led line %s: %s; using in-memory indicator", *ledPath, err)
			led = &gpio.Memory{}
		} else {
			led = line
		}
	} else {
		led = &gpio.Memory{}
	}

	rec, err := record.New(cam, *clipsDir)
	if err != nil {
		logger.Fatal(err)
	}

	streamSrv := stream.NewServer(cam)
	webSrv := web.NewServer(web.Config{
		Addr:       fmt.Sprintf(":%d", *port),
		StreamPort: *streamPort,
	}, cam, led, rec)

	// the two serving loops run independently; they only share the guarded
	// camera record
	errCh := make(chan error, 2)
	go func() {
		errCh <- streamSrv.Serve(ctx, fmt.Sprintf(":%d", *streamPort))
	}()
	go func() {
		errCh <- webSrv.Serve(ctx)
	}()
	go func() {
		utils.WatchSignal()
		logger.Info("signal received, shutting down")
		cancel()
	}()

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			logger.Errorf("serve: %s", err)
			cancel()
		}
	}
}
