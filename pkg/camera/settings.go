package camera

// Settings is the control-surface record: the last successfully applied
// value of every runtime-adjustable sensor parameter. Booleans are carried
// as 0/1 so the status document stays a flat numeric object.
type Settings struct {
	Brightness              int `json:"brightness"`
	Contrast                int `json:"contrast"`
	Saturation              int `json:"saturation"`
	WhiteBalanceMode        int `json:"whiteBalanceMode"`
	WhiteBalanceEnabled     int `json:"whiteBalanceEnabled"`
	AutoWhiteBalanceGain    int `json:"autoWhiteBalanceGain"`
	ExposureControlEnabled  int `json:"exposureControlEnabled"`
	AdvancedExposureEnabled int `json:"advancedExposureEnabled"`
	ExposureLevel           int `json:"exposureLevel"`
	ManualExposureValue     int `json:"manualExposureValue"`
	GammaCorrectionEnabled  int `json:"gammaCorrectionEnabled"`
	LensCorrectionEnabled   int `json:"lensCorrectionEnabled"`
	DownsizeEnabled         int `json:"downsizeEnabled"`
	GainCeiling             int `json:"gainCeiling"`
	SpecialEffect           int `json:"specialEffect"`
	ColorBarTestEnabled     int `json:"colorBarTestEnabled"`
	JPEGQuality             int `json:"jpegQuality"`
	FrameSize               int `json:"frameSize"`
}

// DefaultSettings is the boot-time record; nothing survives a restart.
func DefaultSettings() Settings {
	return Settings{
		Brightness:              0,
		Contrast:                0,
		Saturation:              0,
		WhiteBalanceMode:        0, // auto
		WhiteBalanceEnabled:     1,
		AutoWhiteBalanceGain:    1,
		ExposureControlEnabled:  1,
		AdvancedExposureEnabled: 0,
		ExposureLevel:           0,
		ManualExposureValue:     300,
		GammaCorrectionEnabled:  1,
		LensCorrectionEnabled:   1,
		DownsizeEnabled:         1,
		GainCeiling:             2,
		SpecialEffect:           0,
		ColorBarTestEnabled:     0,
		JPEGQuality:             10,
		FrameSize:               SizeVGA,
	}
}

// Setter result codes, returned verbatim as the update response body.
const (
	ResultOK       = 0
	ResultHardware = 1
	ResultInvalid  = -1
)

// V4L2 control IDs, straight from the kernel header. Raw CIDs keep the
// mapping greppable against v4l2-ctl output.
const (
	cidBrightness       = 0x00980900
	cidContrast         = 0x00980901
	cidSaturation       = 0x00980902
	cidAutoWhiteBalance = 0x0098090c
	cidAutoGain         = 0x00980912
	cidWBTemperature    = 0x0098091a
	cidColorFX          = 0x0098091f
	cidExposureAuto     = 0x009a0901
	cidExposureAbsolute = 0x009a0902
	cidExposureBias     = 0x009a0913
	cidJPEGQuality      = 0x009d0903
	cidTestPattern      = 0x009f0903
)

// field describes one control-surface entry: its valid range, how the value
// reaches the device, and how it reads from / commits into Settings.
type field struct {
	name     string
	min, max int
	enum     []int // non-nil replaces the min/max check

	cid  uint32                    // 0 = software-only, no device call
	conv func(v int) (int32, bool) // device value; false skips the device

	commit func(s *Settings, v int)
	get    func(s Settings) int
}

func (f *field) valid(v int) bool {
	if f.enum != nil {
		for _, e := range f.enum {
			if v == e {
				return true
			}
		}
		return false
	}
	return v >= f.min && v <= f.max
}

func (f *field) devValue(v int) (int32, bool) {
	if f.cid == 0 {
		return 0, false
	}
	if f.conv == nil {
		return int32(v), true
	}
	return f.conv(v)
}

// White balance presets, sensor mode -> color temperature in kelvin.
// Mode 0 leaves the temperature to the AWB loop.
var wbKelvin = map[int]int32{
	1: 5500, // sunny
	2: 6500, // cloudy
	3: 4200, // office
	4: 3200, // home
}

// Special effects, sensor enum -> V4L2_COLORFX. Red tint has no exact
// counterpart; vivid is the least wrong.
var colorFX = map[int]int32{
	0: 0, // none
	1: 3, // negative
	2: 1, // grayscale
	3: 9, // red tint -> vivid
	4: 7, // green tint -> grass green
	5: 6, // blue tint -> sky blue
	6: 2, // sepia
}

// fields is the whole update surface, lookup by exact name. Fields without
// a CID are software-only: the sensor family exposes them but V4L2 has no
// user control, so the hardware step trivially succeeds.
var fields = []field{
	{
		name: "brightness", min: -2, max: 2, cid: cidBrightness,
		commit: func(s *Settings, v int) { s.Brightness = v },
		get:    func(s Settings) int { return s.Brightness },
	},
	{
		name: "contrast", min: -2, max: 2, cid: cidContrast,
		commit: func(s *Settings, v int) { s.Contrast = v },
		get:    func(s Settings) int { return s.Contrast },
	},
	{
		name: "saturation", min: -2, max: 2, cid: cidSaturation,
		commit: func(s *Settings, v int) { s.Saturation = v },
		get:    func(s Settings) int { return s.Saturation },
	},
	{
		name: "whiteBalanceMode", min: 0, max: 4, cid: cidWBTemperature,
		conv: func(v int) (int32, bool) {
			k, ok := wbKelvin[v]
			return k, ok
		},
		commit: func(s *Settings, v int) { s.WhiteBalanceMode = v },
		get:    func(s Settings) int { return s.WhiteBalanceMode },
	},
	{
		name: "whiteBalanceEnabled", min: 0, max: 1, cid: cidAutoWhiteBalance,
		commit: func(s *Settings, v int) { s.WhiteBalanceEnabled = v },
		get:    func(s Settings) int { return s.WhiteBalanceEnabled },
	},
	{
		name: "autoWhiteBalanceGain", min: 0, max: 1, cid: cidAutoGain,
		commit: func(s *Settings, v int) { s.AutoWhiteBalanceGain = v },
		get:    func(s Settings) int { return s.AutoWhiteBalanceGain },
	},
	{
		name: "exposureControlEnabled", min: 0, max: 1, cid: cidExposureAuto,
		// V4L2_EXPOSURE_AUTO=0, V4L2_EXPOSURE_MANUAL=1
		conv: func(v int) (int32, bool) {
			if v == 1 {
				return 0, true
			}
			return 1, true
		},
		commit: func(s *Settings, v int) { s.ExposureControlEnabled = v },
		get:    func(s Settings) int { return s.ExposureControlEnabled },
	},
	{
		name: "advancedExposureEnabled", min: 0, max: 1,
		commit: func(s *Settings, v int) { s.AdvancedExposureEnabled = v },
		get:    func(s Settings) int { return s.AdvancedExposureEnabled },
	},
	{
		name: "exposureLevel", min: -2, max: 2, cid: cidExposureBias,
		commit: func(s *Settings, v int) { s.ExposureLevel = v },
		get:    func(s Settings) int { return s.ExposureLevel },
	},
	{
		name: "manualExposureValue", min: 0, max: 1200, cid: cidExposureAbsolute,
		commit: func(s *Settings, v int) { s.ManualExposureValue = v },
		get:    func(s Settings) int { return s.ManualExposureValue },
	},
	{
		name: "gammaCorrectionEnabled", min: 0, max: 1,
		commit: func(s *Settings, v int) { s.GammaCorrectionEnabled = v },
		get:    func(s Settings) int { return s.GammaCorrectionEnabled },
	},
	{
		name: "lensCorrectionEnabled", min: 0, max: 1,
		commit: func(s *Settings, v int) { s.LensCorrectionEnabled = v },
		get:    func(s Settings) int { return s.LensCorrectionEnabled },
	},
	{
		name: "downsizeEnabled", min: 0, max: 1,
		commit: func(s *Settings, v int) { s.DownsizeEnabled = v },
		get:    func(s Settings) int { return s.DownsizeEnabled },
	},
	{
		name: "gainCeiling", enum: []int{2, 4, 8, 16, 32, 64, 128},
		commit: func(s *Settings, v int) { s.GainCeiling = v },
		get:    func(s Settings) int { return s.GainCeiling },
	},
	{
		name: "specialEffect", min: 0, max: 6, cid: cidColorFX,
		conv: func(v int) (int32, bool) {
			fx, ok := colorFX[v]
			return fx, ok
		},
		commit: func(s *Settings, v int) { s.SpecialEffect = v },
		get:    func(s Settings) int { return s.SpecialEffect },
	},
	{
		name: "colorBarTestEnabled", min: 0, max: 1, cid: cidTestPattern,
		commit: func(s *Settings, v int) { s.ColorBarTestEnabled = v },
		get:    func(s Settings) int { return s.ColorBarTestEnabled },
	},
	{
		name: "jpegQuality", min: 0, max: 63, cid: cidJPEGQuality,
		// sensor scale is inverted (0 best); V4L2 compression quality is not
		conv: func(v int) (int32, bool) {
			return int32(100 - v*99/63), true
		},
		commit: func(s *Settings, v int) { s.JPEGQuality = v },
		get:    func(s Settings) int { return s.JPEGQuality },
	},
	{
		name: "frameSize", min: 0, max: SizeUXGA,
		commit: func(s *Settings, v int) { s.FrameSize = v },
		get:    func(s Settings) int { return s.FrameSize },
	},
}

func fieldByName(name string) *field {
	for i := range fields {
		if fields[i].name == name {
			return &fields[i]
		}
	}
	return nil
}
