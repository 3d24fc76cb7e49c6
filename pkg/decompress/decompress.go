// Package decompress undoes HTTP content codings on captured bodies.
package decompress

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/getmockd/msm/pkg/logging"
)

// ErrUnsupported is returned for a content coding with no decoder.
var ErrUnsupported = errors.New("unsupported content encoding")

// MaxDecodedSize bounds the decoded size of a body.
const MaxDecodedSize = 64 << 20

type decoder func(io.Reader) (io.Reader, func(), error)

var decoders = map[string]decoder{
	"gzip":    gzipDecoder,
	"x-gzip":  gzipDecoder,
	"deflate": zlibDecoder,
	"br":      brotliDecoder,
	"zstd":    zstdDecoder,
}

func gzipDecoder(r io.Reader) (io.Reader, func(), error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, func() { _ = zr.Close() }, nil
}

func zlibDecoder(r io.Reader) (io.Reader, func(), error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, func() { _ = zr.Close() }, nil
}

func brotliDecoder(r io.Reader) (io.Reader, func(), error) {
	return brotli.NewReader(r), func() {}, nil
}

func zstdDecoder(r io.Reader) (io.Reader, func(), error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, err
	}
	return zr, zr.Close, nil
}

// Codings splits a Content-Encoding value into the codings to undo, in the
// order they must be undone (last applied first). identity is dropped.
func Codings(contentEncoding string) []string {
	var out []string
	for _, c := range strings.Split(contentEncoding, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || c == "identity" {
			continue
		}
		out = append(out, c)
	}
	slices.Reverse(out)
	return out
}

// Decode undoes every coding listed in contentEncoding.
func Decode(body []byte, contentEncoding string) ([]byte, error) {
	codings := Codings(contentEncoding)
	for _, c := range codings {
		if _, ok := decoders[c]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupported, c)
		}
	}

	for _, c := range codings {
		out, err := decodeOne(decoders[c], body)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", c, err)
		}
		body = out
	}
	return body, nil
}

func decodeOne(dec decoder, body []byte) ([]byte, error) {
	r, closeFn, err := dec(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer closeFn()

	out, err := io.ReadAll(io.LimitReader(r, MaxDecodedSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxDecodedSize {
		return nil, fmt.Errorf("decoded body exceeds %d bytes", MaxDecodedSize)
	}
	return out, nil
}

// Body decodes body according to the Content-Encoding in h. On failure the
// error is logged and body is returned unchanged.
func Body(body []byte, h http.Header, logger *slog.Logger) []byte {
	ce := h.Get("Content-Encoding")
	if ce == "" || len(body) == 0 {
		return body
	}
	out, err := Decode(body, ce)
	if err != nil {
		logging.OrNop(logger).Error("failed to decompress response body, leaving it as is",
			"contentEncoding", ce, "error", err)
		return body
	}
	return out
}
