package requestdata

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData accumulates correlation fields discovered while a request is
// handled. The pointer lives in the request context, so patches made deep in
// the call chain are visible to the request logger without re-threading the
// context upward. One instance per inbound request; never persisted.
type RequestData struct {
	Method string
	Route  string

	UserID    uuid.UUID
	SessionID uuid.UUID
	QuestID   uuid.UUID
	ChapterID uuid.UUID
	JobID     uuid.UUID
}

// Fields is a partial RequestData; zero values are skipped on Patch.
type Fields struct {
	Method string
	Route  string

	UserID    uuid.UUID
	SessionID uuid.UUID
	QuestID   uuid.UUID
	ChapterID uuid.UUID
	JobID     uuid.UUID
}

func With(ctx context.Context, rd *RequestData) context.Context {
	if rd == nil {
		rd = &RequestData{}
	}
	return context.WithValue(ctx, requestDataKey{}, rd)
}

// Get returns the active carrier, or nil outside any request scope. It never
// fails so logging can stay best-effort.
func Get(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// Patch merges non-zero fields into the active carrier. It is a silent no-op
// when no carrier is installed; correlation must never fail business logic.
func Patch(ctx context.Context, f Fields) {
	rd := Get(ctx)
	if rd == nil {
		return
	}
	if f.Method != "" {
		rd.Method = f.Method
	}
	if f.Route != "" {
		rd.Route = f.Route
	}
	if f.UserID != uuid.Nil {
		rd.UserID = f.UserID
	}
	if f.SessionID != uuid.Nil {
		rd.SessionID = f.SessionID
	}
	if f.QuestID != uuid.Nil {
		rd.QuestID = f.QuestID
	}
	if f.ChapterID != uuid.Nil {
		rd.ChapterID = f.ChapterID
	}
	if f.JobID != uuid.Nil {
		rd.JobID = f.JobID
	}
}
