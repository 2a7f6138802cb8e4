
// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package apiv1

import (
	"net/http"

	"github.com/fixmyphone/edge/src/netshare"
)

type serverInfoType struct {
	Software     string   `json:"software"`
	Version      string   `json:"version"`
	OriginURL    string   `json:"originUrl"`
	CacheVersion string   `json:"cacheVersion"`
	Manifest     []string `json:"manifest"`
	AdminName    string   `json:"adminName"`
	AdminMail    string   `json:"adminMail"`
}

// GET /api/v1/getServerInfo
func (data *Data) getServerInfoHand(rw http.ResponseWriter, req *http.Request) error {
	// Check method
	if req.Method != "GET" {
		return netshare.ErrMethodNotAllowed
	}

	// Prepare data
	serverInfo := serverInfoType{
		Software:     "FixMyPhone Edge",
		Version:      data.Version,
		OriginURL:    data.OriginURL,
		CacheVersion: data.CacheVersion,
		Manifest:     data.Manifest,
		AdminName:    data.AdminName,
		AdminMail:    data.AdminMail,
	}

	// Return response (indented JSON with newline)
	return writeJSON(rw, serverInfo)
}
