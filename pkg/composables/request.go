package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/peopledesk/peopledesk/pkg/constants"
)

var ErrNoActor = errors.New("no actor found in context")

// WithActorID stores the authenticated employee id resolved by the upstream
// identity tier. The org core trusts this id and performs no authorization.
func WithActorID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.ActorKey, id)
}

func UseActorID(ctx context.Context) (uuid.UUID, error) {
	v := ctx.Value(constants.ActorKey)
	if v == nil {
		return uuid.Nil, ErrNoActor
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoActor
	}
	return id, nil
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

func UseLogger(ctx context.Context) *logrus.Entry {
	if v := ctx.Value(constants.LoggerKey); v != nil {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, id)
}

func UseRequestID(ctx context.Context) string {
	if v := ctx.Value(constants.RequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
