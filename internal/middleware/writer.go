package middleware

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"net/http"
)

// recorder remembers the response status and, for error responses, the
// body, so logging can report the API error code.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	captureBody bool
	body        bytes.Buffer
}

func newRecorder(w http.ResponseWriter, captureBody bool) *recorder {
	if rec, ok := w.(*recorder); ok {
		rec.captureBody = rec.captureBody || captureBody
		return rec
	}
	return &recorder{ResponseWriter: w, status: http.StatusOK, captureBody: captureBody}
}

func (rw *recorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.captureBody && rw.status >= 400 && rw.body.Len() < 4096 {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *recorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack lets the websocket upgrader take over the connection.
func (rw *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.wroteHeader = true
	rw.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (rw *recorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
