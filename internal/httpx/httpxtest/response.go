// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package httpxtest

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
)

func Body(b string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader([]byte(b)))
}

// JSON builds a response with the given status, JSON body and header pairs.
func JSON(status int, body string, kv ...string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json; charset=utf-8")
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return &http.Response{
		Status:     strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode: status,
		Header:     h,
		Body:       Body(body),
	}
}
