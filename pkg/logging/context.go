package logging

import (
	"context"
)

const (
	SessionIDKey   = "session_id"
	CallsignKey    = "callsign"
	ServiceNameKey = "service_name"
)

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

func WithCallsign(ctx context.Context, callsign string) context.Context {
	return context.WithValue(ctx, CallsignKey, callsign)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

func GetCallsign(ctx context.Context) string {
	if callsign, ok := ctx.Value(CallsignKey).(string); ok {
		return callsign
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 6)

	if sessionID := GetSessionID(ctx); sessionID != "" {
		fields = append(fields, "session_id", sessionID)
	}

	if callsign := GetCallsign(ctx); callsign != "" {
		fields = append(fields, "callsign", callsign)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}
