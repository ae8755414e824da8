// camprobe prints the controls and JPEG frame sizes a device supports.
// Bring-up aid: run it before blaming the settings API for a rejection.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/vladimirvivien/go4vl/device"
	"github.com/vladimirvivien/go4vl/v4l2"
)

func main() {
	devName := "/dev/video0"
	flag.StringVar(&devName, "d", devName, "dev name (path)")
	flag.Parse()

	dev, err := device.Open(devName)
	if err != nil {
		log.Fatalf("failed to open dev: %s", err)
	}
	defer dev.Close()

	ctrls, err := v4l2.QueryAllExtControls(dev.Fd())
	if err != nil {
		log.Fatalf("query controls: %s", err)
	}
	for _, ctrl := range ctrls {
		fmt.Printf("ctrl 0x%08x %s\t[min: %d; max: %d; step: %d; default: %d; current: %d]\n",
			ctrl.ID, ctrl.Name, ctrl.Minimum, ctrl.Maximum, ctrl.Step, ctrl.Default, ctrl.Value)
	}

	sizes, err := v4l2.GetAllFormatFrameSizes(dev.Fd())
	if err != nil {
		log.Fatalf("query frame sizes: %s", err)
	}
	for _, size := range sizes {
		if size.PixelFormat == v4l2.PixelFmtJPEG {
			fmt.Printf("jpeg: %d*%d up to %d*%d\n",
				size.Size.MinWidth, size.Size.MinHeight,
				size.Size.MaxWidth, size.Size.MaxHeight)
		}
	}
}
