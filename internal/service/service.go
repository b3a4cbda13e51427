// Package service holds the vault's use cases: owner-scoped document CRUD and
// the attachment workflow that feeds it.
package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"dokubox/internal/model"
)

var tracer = otel.Tracer("dokubox/internal/service")

// Identity resolves the user the current session belongs to.
type Identity interface {
	CurrentUser(ctx context.Context) (model.User, error)
}

// Attachments uploads and removes document image blobs.
type Attachments interface {
	Upload(ctx context.Context, asset model.ImageAsset) (model.ImageAttachment, error)
	Delete(ctx context.Context, fileID string) error
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
