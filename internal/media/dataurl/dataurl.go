// Package dataurl parses and builds base64 "data:" URLs, the embedded image
// form photos take when no object store URL exists.
package dataurl

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalid = errors.New("invalid data url")

type DataURL struct {
	MIME string
	Data []byte
}

func Parse(raw string) (DataURL, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "data:")
	if !ok {
		return DataURL{}, ErrInvalid
	}

	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return DataURL{}, ErrInvalid
	}

	mime, params, _ := strings.Cut(meta, ";")
	if !hasParam(params, "base64") {
		return DataURL{}, ErrInvalid
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some encoders drop the padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return DataURL{}, ErrInvalid
		}
	}
	if len(data) == 0 {
		return DataURL{}, ErrInvalid
	}

	return DataURL{MIME: strings.ToLower(strings.TrimSpace(mime)), Data: data}, nil
}

func Encode(mime string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mime) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mime)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

func hasParam(params, name string) bool {
	for _, p := range strings.Split(params, ";") {
		if strings.EqualFold(strings.TrimSpace(p), name) {
			return true
		}
	}
	return false
}
