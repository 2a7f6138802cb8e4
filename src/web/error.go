
// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fixmyphone/edge/src/netshare"
)

var errNotFound = netshare.ErrNotFound

func (data *Data) writeError(rw http.ResponseWriter, req *http.Request, e error) (int, error) {
	code := 500

	var eTmp429 *netshare.RateLimitError

	if e == netshare.ErrBadRequest {
		code = 400

	} else if e == netshare.ErrNotFound {
		code = 404

	} else if e == netshare.ErrMethodNotAllowed {
		code = 405

	} else if errors.As(e, &eTmp429) {
		code = 429
		rw.Header().Set("Retry-After", strconv.FormatInt(eTmp429.RetryAfter, 10))
	}

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(code)

	_, err := fmt.Fprintf(rw,
		"<!DOCTYPE html>\n<html><head><title>%d - %s</title></head>\n"+
			"<body><h1>%d %s</h1><p>Contact: %s &lt;%s&gt;</p></body></html>\n",
		code, http.StatusText(code), code, http.StatusText(code),
		data.AdminName, data.AdminMail)
	if err != nil {
		return 500, err
	}

	return code, nil
}
