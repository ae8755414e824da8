// Package web serves the control surface: the embedded page, the LED
// route, the camera settings API and the /api extras.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"camnode/pkg/camera"
	"camnode/pkg/gpio"
	"camnode/pkg/record"
	"camnode/pkg/request"
	"camnode/pkg/utils"
)

// CameraCtl is the slice of the camera the control surface needs.
type CameraCtl interface {
	Status() camera.Settings
	Set(name string, value int) int
}

type Config struct {
	Addr       string
	StreamPort int
}

type Server struct {
	cam  CameraCtl
	led  gpio.Output
	rec  *record.Recorder
	page []byte

	srv    *http.Server
	logger *zap.SugaredLogger
}

func NewServer(cfg Config, cam CameraCtl, led gpio.Output, rec *record.Recorder) *Server {
	s := &Server{
		cam:    cam,
		led:    led,
		rec:    rec,
		page:   pageHTML(cfg.StreamPort),
		logger: utils.GetLogger(),
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.Cors())
	r.Use(closeConnections())

	// dispatch order matters: led, then camera, then the page catches the rest
	r.GET("/led", s.handleLED)
	r.GET("/camera/status", s.handleCameraStatus)
	r.GET("/camera", s.handleCameraUpdate)
	r.GET("/", s.handlePage)

	api := r.Group("/api")
	api.GET("/system", s.handleSystem)
	api.POST("/record", s.handleRecord)
	api.GET("/record/clips", s.handleClips)

	r.NoRoute(s.handlePage)

	s.srv = &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
		// same request-head limits the stream port enforces by hand
		ReadHeaderTimeout: request.HeaderTimeout,
		MaxHeaderBytes:    request.MaxHeaderBytes,
	}
	return s
}

// closeConnections disables keep-alive: one request, one response, one
// connection, like the firmware this replaces.
func closeConnections() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Connection", "close")
		c.Next()
	}
}

// Serve runs the control server until ctx is cancelled, then drains it.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("web listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
