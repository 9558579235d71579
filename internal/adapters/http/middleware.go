package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tradeforge/insight-mining-service/internal/application"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyActor     ctxKey = "actor"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", requestIDFromContext(r.Context()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves the caller identity. A bearer token wins when a
// verifier is configured; mesh-internal calls may instead carry the
// X-Actor-Id and X-Actor-Role headers set by the gateway.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := application.Actor{
			RequestID:      requestIDFromContext(r.Context()),
			IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		}

		authHeader := r.Header.Get("Authorization")
		switch {
		case h.verifier != nil && authHeader != "":
			raw, ok := bearerToken(authHeader)
			if !ok {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials", actor.RequestID)
				return
			}
			claims, err := h.verifier.Verify(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials", actor.RequestID)
				return
			}
			actor.SubjectID = claims.SubjectID
			actor.Role = claims.Role
		default:
			actor.SubjectID = strings.TrimSpace(r.Header.Get("X-Actor-Id"))
			actor.Role = strings.TrimSpace(r.Header.Get("X-Actor-Role"))
		}

		if actor.SubjectID == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials", actor.RequestID)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyActor, actor)))
	})
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

func actorFromContext(ctx context.Context) application.Actor {
	if actor, ok := ctx.Value(ctxKeyActor).(application.Actor); ok {
		return actor
	}
	return application.Actor{RequestID: requestIDFromContext(ctx)}
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}
