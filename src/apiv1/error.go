
// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package apiv1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/fixmyphone/edge/src/httputil"
	"github.com/fixmyphone/edge/src/netshare"
)

type errorType struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

func (data *Data) writeError(rw http.ResponseWriter, req *http.Request, e error) (int, error) {
	var resp errorType

	var eTmp429 *netshare.RateLimitError

	if e == netshare.ErrBadRequest {
		resp.Code = 400
		resp.Error = "Bad Request"

	} else if e == netshare.ErrNotFound {
		resp.Code = 404
		resp.Error = "Not Found"

	} else if e == netshare.ErrMethodNotAllowed {
		resp.Code = 405
		resp.Error = "Method Not Allowed"

	} else if e == netshare.ErrPayloadTooLarge {
		resp.Code = 413
		resp.Error = "Payload Too Large"

	} else if e == netshare.ErrTooManyRequests || errors.As(e, &eTmp429) {
		resp.Code = 429
		resp.Error = "Too Many Requests"
		if eTmp429 != nil {
			rw.Header().Set("Retry-After", strconv.FormatInt(eTmp429.RetryAfter, 10))
		}

	} else {
		resp.Code = 500
		resp.Error = "Internal Server Error"
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(resp.Code)

	err := writeJSON(rw, resp)
	if err != nil {
		return 500, err
	}

	return resp.Code, nil
}

// APIResponse is the unified success envelope
type APIResponse struct {
	OK      bool        `json:"ok"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// writeSuccess writes a success envelope with content negotiation
func writeSuccess(w http.ResponseWriter, r *http.Request, data interface{}, textMsg string, textData string) error {
	format := httputil.GetAPIResponseFormat(r)

	switch format {
	case httputil.FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if textMsg != "" {
			fmt.Fprintf(w, "OK: %s\n", textMsg)
		}
		if textData != "" {
			fmt.Fprint(w, textData)
			if textData[len(textData)-1] != '\n' {
				fmt.Fprint(w, "\n")
			}
		}
		return nil
	default:
		return writeJSON(w, APIResponse{
			OK:   true,
			Data: data,
		})
	}
}

// writeJSON writes an indented JSON response ending with a newline
func writeJSON(w http.ResponseWriter, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	if err != nil {
		return err
	}
	_, err = w.Write([]byte("\n"))
	return err
}
