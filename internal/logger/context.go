package logger

import "context"

type contextKey string

const SessionIDKey contextKey = "session_id"
const StoryIDKey contextKey = "story_id"

func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, SessionIDKey, id)
}

func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}

func WithStoryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, StoryIDKey, id)
}

func GetStoryID(ctx context.Context) string {
	if id, ok := ctx.Value(StoryIDKey).(string); ok {
		return id
	}
	return ""
}
