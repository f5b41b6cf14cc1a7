// Package gzippedhttp contains the two middlewares that make the HTTP
// surface transparent to gzip: request bodies arriving with
// Content-Encoding gzip are unwrapped, and responses are compressed when
// the client accepts it.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

type gzippedBody struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func (b *gzippedBody) Read(p []byte) (int, error) {
	return b.zr.Read(p)
}

func (b *gzippedBody) Close() error {
	if err := b.body.Close(); err != nil {
		return err
	}
	return b.zr.Close()
}

type gzippedResponseWriter struct {
	http.ResponseWriter
	zw *gzip.Writer
}

func (w *gzippedResponseWriter) WriteHeader(statusCode int) {
	if statusCode < 300 {
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *gzippedResponseWriter) Write(p []byte) (int, error) {
	return w.zw.Write(p)
}

func (w *gzippedResponseWriter) close() error {
	err := w.zw.Close()
	gzipWriterPool.Put(w.zw)
	return err
}

// GzipResponse compresses the response body when the request's
// Accept-Encoding admits gzip.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if !strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			h.ServeHTTP(response, request)
			return
		}

		zw := gzipWriterPool.Get().(*gzip.Writer)
		zw.Reset(response)
		compressed := &gzippedResponseWriter{
			ResponseWriter: response,
			zw:             zw,
		}
		defer compressed.close()

		h.ServeHTTP(compressed, request)
	}

	return http.HandlerFunc(middleware)
}

// UngzipRequest replaces a gzip-encoded request body with a decompressing
// reader before passing the request along.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			zr, err := gzip.NewReader(request.Body)
			if err != nil {
				response.WriteHeader(http.StatusInternalServerError)
				return
			}
			body := &gzippedBody{
				body: request.Body,
				zr:   zr,
			}
			request.Body = body
			defer body.Close()
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
