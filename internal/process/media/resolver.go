// Package media turns message attachments into media descriptors.
//
// Photos and documents are downloaded and base64-encoded; locations,
// contacts and web pages only contribute structured details. A failure
// while resolving one item is recorded in the descriptor's "error" detail
// and never aborts forwarding of the enclosing message.
package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
	coreerrors "github.com/lueurxax/telegram-webhook-forwarder/internal/core/errors"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/observability"
)

const (
	photoMimeType      = "image/jpeg"
	photoExt           = "jpg"
	defaultMaxBytes    = 20 * 1024 * 1024
	defaultConcurrency = 5

	statusOK    = "ok"
	statusError = "error"
)

// Config bounds media downloads.
type Config struct {
	MaxBytes    int64
	Concurrency int
}

type Resolver struct {
	maxBytes    int64
	downloadSem chan struct{}
	logger      *zerolog.Logger
}

func NewResolver(cfg Config, logger *zerolog.Logger) *Resolver {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	return &Resolver{
		maxBytes:    cfg.MaxBytes,
		downloadSem: make(chan struct{}, cfg.Concurrency),
		logger:      logger,
	}
}

// Resolve describes m. It never panics; any failure is reported in the
// descriptor's error detail and the binary payload is omitted.
func (r *Resolver) Resolve(ctx context.Context, m domain.Media) (desc domain.MediaDescriptor) {
	if m == nil {
		return domain.MediaDescriptor{Kind: domain.MediaNone}
	}

	desc = domain.MediaDescriptor{Kind: m.Kind(), Details: map[string]any{}}

	defer func() {
		if rec := recover(); rec != nil {
			fail(&desc, fmt.Errorf("panic while resolving media: %v", rec))
		}

		status := statusOK
		if desc.Error() != "" {
			status = statusError
			r.logger.Warn().Str("kind", string(desc.Kind)).Str("error", desc.Error()).Msg("media resolution degraded")
		}

		observability.MediaResolved.WithLabelValues(string(desc.Kind), status).Inc()
	}()

	switch v := m.(type) {
	case domain.Photo:
		r.resolvePhoto(ctx, v, &desc)
	case domain.Document:
		r.resolveDocument(ctx, v, &desc)
	case domain.Location:
		desc.Details["latitude"] = v.Latitude
		desc.Details["longitude"] = v.Longitude
	case domain.Contact:
		desc.Details["phone"] = v.Phone
		setIfNotEmpty(desc.Details, "first_name", v.FirstName)
		setIfNotEmpty(desc.Details, "last_name", v.LastName)
	case domain.WebPage:
		setIfNotEmpty(desc.Details, "url", v.URL)
		setIfNotEmpty(desc.Details, "title", v.Title)
	case domain.UnknownMedia:
		setIfNotEmpty(desc.Details, "type", v.TypeName)
	default:
		desc.Kind = domain.MediaUnknown
		desc.Details["type"] = fmt.Sprintf("%T", m)
	}

	return desc
}

func (r *Resolver) resolvePhoto(ctx context.Context, p domain.Photo, desc *domain.MediaDescriptor) {
	data, err := r.fetch(ctx, p.Source)
	if err != nil {
		fail(desc, err)

		return
	}

	desc.Base64 = base64.StdEncoding.EncodeToString(data)
	desc.MimeType = photoMimeType
	desc.FileExt = photoExt
}

func (r *Resolver) resolveDocument(ctx context.Context, d domain.Document, desc *domain.MediaDescriptor) {
	setIfNotEmpty(desc.Details, "mime_type", d.MimeType)
	setIfNotEmpty(desc.Details, "filename", d.FileName)

	if d.Size > r.maxBytes {
		fail(desc, fmt.Errorf("%w: %d bytes", coreerrors.ErrMediaTooLarge, d.Size))

		return
	}

	data, err := r.fetch(ctx, d.Source)
	if err != nil {
		fail(desc, err)

		return
	}

	mimeType := d.MimeType

	var sniffed *mimetype.MIME
	if mimeType == "" {
		sniffed = mimetype.Detect(data)
		mimeType = sniffed.String()
	}

	desc.Base64 = base64.StdEncoding.EncodeToString(data)
	desc.MimeType = mimeType
	desc.FileExt = fileExtension(d.FileName, mimeType, sniffed)
}

func (r *Resolver) fetch(ctx context.Context, src domain.Fetcher) ([]byte, error) {
	if src == nil {
		return nil, coreerrors.ErrNoMediaSource
	}

	select {
	case r.downloadSem <- struct{}{}:
		defer func() { <-r.downloadSem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for download slot: %w", ctx.Err())
	}

	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}

	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", coreerrors.ErrMediaTooLarge, len(data))
	}

	observability.MediaBytes.Observe(float64(len(data)))

	return data, nil
}

// fileExtension prefers the filename suffix, then the extension registered for the MIME type.
func fileExtension(fileName, mimeType string, sniffed *mimetype.MIME) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 && i < len(fileName)-1 {
		return fileName[i+1:]
	}

	if sniffed == nil {
		sniffed = mimetype.Lookup(mimeType)
	}

	if sniffed == nil {
		return ""
	}

	return strings.TrimPrefix(sniffed.Extension(), ".")
}

func fail(desc *domain.MediaDescriptor, err error) {
	if desc.Details == nil {
		desc.Details = map[string]any{}
	}

	desc.Details[domain.DetailError] = err.Error()
	desc.Base64 = ""
	desc.MimeType = ""
	desc.FileExt = ""
}

func setIfNotEmpty(details map[string]any, key, value string) {
	if value != "" {
		details[key] = value
	}
}
