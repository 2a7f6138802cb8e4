// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package apiv1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fixmyphone/edge/src/httputil"
)

type healthzResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"timestamp"`
	Version string `json:"version"`
	Stores  string `json:"stores"`
	Worker  string `json:"worker"`
	Uptime  int64  `json:"uptime"`
}

var startTime = time.Now()

// GET /api/v1/healthz - health check
// Supports content negotiation:
// - Default: JSON
// - .txt extension or Accept: text/plain: plain text
func (data *Data) handleHealthz(rw http.ResponseWriter, req *http.Request) error {
	if req.Method != "GET" {
		rw.Header().Set("Allow", "GET")
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return nil
	}

	healthData := healthzResponse{
		Status:  "healthy",
		Time:    time.Now().Unix(),
		Version: data.Version,
		Stores:  "connected",
		Worker:  data.Worker.State().String(),
		Uptime:  int64(time.Since(startTime).Seconds()),
	}

	// Listing store names doubles as a backend ping
	_, err := data.Stores.Names()
	if err != nil {
		healthData.Status = "degraded"
		healthData.Stores = "error"
	}

	format := httputil.GetAPIResponseFormat(req)

	statusCode := http.StatusOK
	if err != nil {
		statusCode = http.StatusServiceUnavailable
	}

	switch format {
	case httputil.FormatText:
		rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
		rw.WriteHeader(statusCode)
		if healthData.Status == "healthy" {
			fmt.Fprintf(rw, "OK: healthy\n")
			fmt.Fprintf(rw, "status: %s\n", healthData.Status)
			fmt.Fprintf(rw, "stores: %s\n", healthData.Stores)
			fmt.Fprintf(rw, "worker: %s\n", healthData.Worker)
			fmt.Fprintf(rw, "version: %s\n", healthData.Version)
			fmt.Fprintf(rw, "uptime: %d\n", healthData.Uptime)
		} else {
			fmt.Fprintf(rw, "ERROR: DEGRADED: %s (stores: %s)\n", healthData.Status, healthData.Stores)
		}
	default:
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(statusCode)
		resp := APIResponse{
			OK:   healthData.Status == "healthy",
			Data: healthData,
		}
		if healthData.Status != "healthy" {
			resp.Error = "DEGRADED"
			resp.Message = fmt.Sprintf("Service degraded: stores %s", healthData.Stores)
		}
		jsonData, _ := json.MarshalIndent(resp, "", "  ")
		rw.Write(jsonData)
		rw.Write([]byte("\n"))
	}

	return nil
}
