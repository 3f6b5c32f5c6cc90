package reader

import (
	"bytes"
	"context"
	"fmt"

	"github.com/gotd/td/telegram/downloader"
	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/core/domain"
)

// convertMedia maps an attachment to the domain media union. A nil result means no media.
func (c *converter) convertMedia(media tg.MessageMediaClass) domain.Media {
	switch m := media.(type) {
	case nil, *tg.MessageMediaEmpty:
		return nil
	case *tg.MessageMediaPhoto:
		photo, ok := m.Photo.(*tg.Photo)
		if !ok {
			return domain.Photo{}
		}

		return domain.Photo{ID: photo.ID, Source: c.source(largestPhotoLocation(photo))}
	case *tg.MessageMediaDocument:
		doc, ok := m.Document.(*tg.Document)
		if !ok {
			return domain.Document{}
		}

		return domain.Document{
			ID:       doc.ID,
			MimeType: doc.MimeType,
			FileName: documentFileName(doc),
			Size:     doc.Size,
			Source: c.source(&tg.InputDocumentFileLocation{
				ID:            doc.ID,
				AccessHash:    doc.AccessHash,
				FileReference: doc.FileReference,
			}),
		}
	case *tg.MessageMediaGeo:
		return geoLocation(m.Geo)
	case *tg.MessageMediaGeoLive:
		return geoLocation(m.Geo)
	case *tg.MessageMediaVenue:
		return geoLocation(m.Geo)
	case *tg.MessageMediaContact:
		return domain.Contact{Phone: m.PhoneNumber, FirstName: m.FirstName, LastName: m.LastName}
	case *tg.MessageMediaWebPage:
		page, ok := m.Webpage.(*tg.WebPage)
		if !ok {
			return domain.WebPage{}
		}

		return domain.WebPage{URL: page.URL, Title: page.Title}
	default:
		return domain.UnknownMedia{TypeName: media.TypeName()}
	}
}

func (c *converter) source(loc tg.InputFileLocationClass) domain.Fetcher {
	if loc == nil || c.fetcher == nil {
		return nil
	}

	return c.fetcher(loc)
}

// largestPhotoLocation picks the biggest rendition by area.
func largestPhotoLocation(photo *tg.Photo) tg.InputFileLocationClass {
	var (
		thumbSize string
		maxArea   int
	)

	for _, size := range photo.Sizes {
		switch s := size.(type) {
		case *tg.PhotoSize:
			if s.W*s.H > maxArea {
				maxArea = s.W * s.H
				thumbSize = s.Type
			}
		case *tg.PhotoSizeProgressive:
			if s.W*s.H > maxArea {
				maxArea = s.W * s.H
				thumbSize = s.Type
			}
		}
	}

	if thumbSize == "" {
		return nil
	}

	return &tg.InputPhotoFileLocation{
		ID:            photo.ID,
		AccessHash:    photo.AccessHash,
		FileReference: photo.FileReference,
		ThumbSize:     thumbSize,
	}
}

func documentFileName(doc *tg.Document) string {
	for _, attr := range doc.Attributes {
		if name, ok := attr.(*tg.DocumentAttributeFilename); ok {
			return name.FileName
		}
	}

	return ""
}

func geoLocation(geo tg.GeoPointClass) domain.Media {
	point, ok := geo.(*tg.GeoPoint)
	if !ok {
		return domain.UnknownMedia{TypeName: "geoPointEmpty"}
	}

	return domain.Location{Latitude: point.Lat, Longitude: point.Long}
}

// fileFetcher downloads one file location through the MTProto API.
type fileFetcher struct {
	api *tg.Client
	dl  *downloader.Downloader
	loc tg.InputFileLocationClass
}

func (f fileFetcher) Fetch(ctx context.Context) ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := f.dl.Download(f.api, f.loc).Stream(ctx, buf); err != nil {
		return nil, fmt.Errorf("download %s: %w", f.loc.TypeName(), err)
	}

	return buf.Bytes(), nil
}
