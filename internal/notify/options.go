package notify

import (
	"fmt"
	"time"

	"github.com/lokalmart/courierd/internal/model"
)

const (
	appTag      = "lokalmart"
	defaultIcon = "/favicon.ico"
)

// Options is everything needed to display one notification.
type Options struct {
	Title              string                     `json:"title"`
	Body               string                     `json:"body"`
	Icon               string                     `json:"icon"`
	Badge              string                     `json:"badge"`
	Tag                string                     `json:"tag"`
	Timestamp          time.Time                  `json:"timestamp"`
	Silent             bool                       `json:"silent"`
	RequireInteraction bool                       `json:"requireInteraction"`
	Vibrate            []int                      `json:"vibrate,omitempty"`
	Actions            []model.NotificationAction `json:"actions,omitempty"`
	Data               model.PushData             `json:"data"`
}

// typeProfile holds the presentation settings for one notification type.
type typeProfile struct {
	requireInteraction bool
	vibrate            []int
	actions            []model.NotificationAction
}

var typeProfiles = map[string]typeProfile{
	model.NotifTypeDeliveryAssignment: {
		requireInteraction: true,
		vibrate:            []int{300, 200, 300, 200, 300},
		actions: []model.NotificationAction{
			{Action: "accept", Title: "Accept"},
			{Action: "view", Title: "View Details"},
		},
	},
	model.NotifTypeOrderUpdate: {
		requireInteraction: false,
		vibrate:            []int{200, 100, 200},
		actions: []model.NotificationAction{
			{Action: "track", Title: "Track Order"},
		},
	},
	model.NotifTypeApproval: {
		requireInteraction: true,
		vibrate:            []int{500, 200, 500},
		actions: []model.NotificationAction{
			{Action: "view_dashboard", Title: "View Dashboard"},
		},
	},
}

var defaultProfile = typeProfile{
	requireInteraction: false,
	vibrate:            []int{200, 100, 200},
}

// Compose derives display options from a decoded push payload. Unknown or
// absent types take the default profile and keep any payload-provided
// actions; the tag is synthesized to be unique per receipt so notifications
// never collapse into each other.
func Compose(p model.PushPayload, receivedAt time.Time) Options {
	profile, ok := typeProfiles[p.Data.Type]
	if !ok {
		profile = defaultProfile
		profile.actions = p.Actions
	}

	tagType := p.Data.Type
	if tagType == "" {
		tagType = "general"
	}

	opts := Options{
		Title:              p.Title,
		Body:               p.Body,
		Icon:               p.Icon,
		Badge:              p.Badge,
		Tag:                fmt.Sprintf("%s-%s-%d", appTag, tagType, receivedAt.UnixMilli()),
		Timestamp:          receivedAt,
		Silent:             false,
		RequireInteraction: profile.requireInteraction,
		Vibrate:            profile.vibrate,
		Actions:            profile.actions,
		Data:               p.Data,
	}
	if opts.Icon == "" {
		opts.Icon = defaultIcon
	}
	if opts.Badge == "" {
		opts.Badge = defaultIcon
	}
	return opts
}
