package activity

import (
	"strings"
	"time"
)

// Event is a canvas activity entry handed to hooks.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// NormalizeEvent trims identifiers, clones slices and maps, and stamps OccurredAt when unset.
func NormalizeEvent(evt Event) Event {
	out := evt
	out.Verb = strings.TrimSpace(evt.Verb)
	out.ActorID = strings.TrimSpace(evt.ActorID)
	out.UserID = strings.TrimSpace(evt.UserID)
	out.TenantID = strings.TrimSpace(evt.TenantID)
	out.ObjectType = strings.TrimSpace(evt.ObjectType)
	out.ObjectID = strings.TrimSpace(evt.ObjectID)
	out.Channel = strings.TrimSpace(evt.Channel)
	out.DefinitionCode = strings.TrimSpace(evt.DefinitionCode)
	if evt.Recipients != nil {
		out.Recipients = append([]string(nil), evt.Recipients...)
	}
	if evt.Metadata != nil {
		out.Metadata = make(map[string]any, len(evt.Metadata))
		for k, v := range evt.Metadata {
			out.Metadata[k] = v
		}
	}
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now().UTC()
	}
	return out
}

func (evt Event) valid() bool {
	return evt.Verb != "" && evt.ObjectType != "" && evt.ObjectID != ""
}
