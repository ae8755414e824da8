package web

import (
	"bytes"
	"embed"
	"strconv"
)

//go:embed statics/index.html
var staticsFS embed.FS

// pageHTML assembles the control page once at startup: the stream port is
// baked in so every request serves the same fixed byte blob.
func pageHTML(streamPort int) []byte {
	data, err := staticsFS.ReadFile("statics/index.html")
	if err != nil {
		// the page is compiled in; a miss is a build defect
		panic(err)
	}
	return bytes.ReplaceAll(data,
		[]byte("__STREAM_PORT__"), []byte(strconv.Itoa(streamPort)))
}
