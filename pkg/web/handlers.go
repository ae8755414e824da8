package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/vincent-vinf/go-jsend"

	"camnode/pkg/camera"
	"camnode/pkg/ov"
	"camnode/pkg/request"
	"camnode/pkg/utils/ps"
)

const (
	defaultRecordFrames = 100
	maxRecordFrames     = 600
)

func (s *Server) handlePage(c *gin.Context) {
	// the page is bigger than net/http's write buffer; without an explicit
	// length the response falls back to chunked encoding
	c.Header("Content-Length", strconv.Itoa(len(s.page)))
	c.Data(http.StatusOK, "text/html; charset=utf-8", s.page)
}

// handleLED drives the indicator: state=1 high, state=0 low, state=2 query.
// The body is always the resulting level, or -1 for anything else.
func (s *Server) handleLED(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")

	result := -1
	switch c.Query("state") {
	case "1":
		if err := s.led.Set(true); err != nil {
			s.logger.Warnf("led on: %s", err)
		}
		result = ledLevel(s.led.Get())
	case "0":
		if err := s.led.Set(false); err != nil {
			s.logger.Warnf("led off: %s", err)
		}
		result = ledLevel(s.led.Get())
	case "2":
		result = ledLevel(s.led.Get())
	}

	c.Data(http.StatusOK, "text/plain", []byte(strconv.Itoa(result)))
}

func ledLevel(on bool) int {
	if on {
		return 1
	}
	return 0
}

// handleCameraStatus reflects the software record only; it never touches
// the device.
func (s *Server) handleCameraStatus(c *gin.Context) {
	body, err := json.Marshal(s.cam.Status())
	if err != nil {
		c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
		return
	}
	c.Data(http.StatusOK, "application/json", body)
}

// handleCameraUpdate applies one name=value pair. Only the first query
// pair counts, and non-numeric values read as 0; both are protocol, not
// accidents.
func (s *Server) handleCameraUpdate(c *gin.Context) {
	name, value, ok := request.FirstPair(c.Request.URL.RawQuery)
	code := camera.ResultInvalid
	if ok {
		code = s.cam.Set(name, request.PermissiveInt(value))
	}
	c.Data(http.StatusOK, "text/plain", []byte(strconv.Itoa(code)))
}

func (s *Server) handleSystem(c *gin.Context) {
	cpu, err := ps.CPUStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
		return
	}
	memory, err := ps.MemoryStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
		return
	}
	// temperature and uptime are best effort; some boards expose neither
	temp, err := ps.Temperature()
	if err != nil {
		s.logger.Debugf("read temperature: %s", err)
	}
	uptime, err := ps.Uptime()
	if err != nil {
		s.logger.Debugf("read uptime: %s", err)
	}

	c.JSON(http.StatusOK, jsend.Success(ov.SystemStatus{
		CPU:         cpu,
		Memory:      memory,
		MemoryUsed:  humanize.Bytes(memory.Used),
		Temperature: temp,
		Uptime:      uptime.Round(time.Second).String(),
	}))
}

func (s *Server) handleRecord(c *gin.Context) {
	n := request.PermissiveInt(c.Query("frames"))
	if n <= 0 {
		n = defaultRecordFrames
	}
	if n > maxRecordFrames {
		n = maxRecordFrames
	}

	clip, err := s.rec.Record(n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(clip))
}

func (s *Server) handleClips(c *gin.Context) {
	clips, err := s.rec.Clips()
	if err != nil {
		c.JSON(http.StatusInternalServerError, jsend.SimpleErr(err.Error()))
		return
	}
	c.JSON(http.StatusOK, jsend.Success(clips))
}
