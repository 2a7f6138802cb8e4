// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package apiv1

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/fixmyphone/edge/src/netshare"
	"github.com/fixmyphone/edge/src/notify"
)

const notifyBodyMax = 65536

type notifyRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
	Push  bool   `json:"push"`
}

type notifyAnswer struct {
	Shown        bool   `json:"shown"`
	Permission   string `json:"permission"`
	ClickPrimary string `json:"clickPrimary"`
	ClickExplore string `json:"clickExplore"`
}

// POST /api/v1/notify - display a notification
// A push-style request bypasses the page permission gate the same way
// a platform push event does.
func (data *Data) handleNotify(rw http.ResponseWriter, req *http.Request) error {
	if req.Method != "POST" {
		return netshare.ErrMethodNotAllowed
	}

	err := data.RateLimitAPI.CheckAndUse(netshare.GetClientAddr(req))
	if err != nil {
		return err
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, notifyBodyMax+1))
	if err != nil {
		return err
	}
	if len(raw) > notifyBodyMax {
		return netshare.ErrPayloadTooLarge
	}

	var body notifyRequest
	if err := json.Unmarshal(raw, &body); err != nil {
		return netshare.ErrBadRequest
	}

	var shown *notify.Notification
	if body.Push {
		shown = data.Notifier.HandlePush([]byte(body.Body))
	} else {
		if body.Title == "" {
			return netshare.ErrBadRequest
		}
		shown = data.App.ShowNotification(body.Title, &notify.Options{Body: body.Body, Tag: body.Tag})
	}

	answer := notifyAnswer{
		Shown:        shown != nil,
		Permission:   string(data.Notifier.Permission()),
		ClickPrimary: notify.ClickTarget(""),
		ClickExplore: notify.ClickTarget(notify.ActionExplore),
	}

	text := "shown: "
	if answer.Shown {
		text += "true\n"
	} else {
		text += "false\n"
	}
	return writeSuccess(rw, req, answer, "Notify", text)
}
