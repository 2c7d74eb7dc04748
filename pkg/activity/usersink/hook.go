package usersink

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-reports/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// ActivitySink is the go-users activity logging surface.
type ActivitySink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// Hook writes report activity into a go-users activity sink.
type Hook struct {
	Sink ActivitySink
}

var _ activity.Hook = Hook{}

// Notify implements activity.Hook. Identifiers that are not UUIDs map to uuid.Nil.
func (h Hook) Notify(ctx context.Context, evt activity.Event) error {
	if h.Sink == nil {
		return errors.New("usersink: activity sink is required")
	}
	evt = activity.NormalizeEvent(evt)
	if evt.Verb == "" {
		return nil
	}
	record := types.ActivityRecord{
		ActorID:    parseUUID(evt.ActorID),
		UserID:     parseUUID(evt.UserID),
		TenantID:   parseUUID(evt.TenantID),
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Channel:    evt.Channel,
		OccurredAt: evt.OccurredAt,
		Data:       recordData(evt),
	}
	if err := h.Sink.Log(ctx, record); err != nil {
		return fmt.Errorf("usersink: log %s: %w", evt.Verb, err)
	}
	return nil
}

func recordData(evt activity.Event) map[string]any {
	data := make(map[string]any, len(evt.Metadata)+2)
	for k, v := range evt.Metadata {
		data[k] = v
	}
	if evt.DefinitionCode != "" {
		data["definition_code"] = evt.DefinitionCode
	}
	if len(evt.Recipients) > 0 {
		data["recipients"] = append([]string(nil), evt.Recipients...)
	}
	return data
}

func parseUUID(raw string) uuid.UUID {
	if raw == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
