package domain

import "context"

// MediaKind classifies an attached media item.
type MediaKind string

const (
	MediaNone     MediaKind = "none"
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
	MediaLocation MediaKind = "location"
	MediaContact  MediaKind = "contact"
	MediaWebPage  MediaKind = "webpage"
	MediaUnknown  MediaKind = "unknown"
)

// DetailError is the descriptor detail key carrying a media failure.
const DetailError = "error"

// Fetcher retrieves the binary content of a media item.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Media is the tagged union of attachments a message can carry.
// A nil Media means the message has no attachment.
type Media interface {
	Kind() MediaKind
}

type Photo struct {
	ID     int64
	Source Fetcher
}

type Document struct {
	ID       int64
	MimeType string
	FileName string
	Size     int64
	Source   Fetcher
}

type Location struct {
	Latitude  float64
	Longitude float64
}

type Contact struct {
	Phone     string
	FirstName string
	LastName  string
}

type WebPage struct {
	URL   string
	Title string
}

// UnknownMedia is an attachment type the forwarder does not understand.
type UnknownMedia struct {
	TypeName string
}

func (Photo) Kind() MediaKind        { return MediaPhoto }
func (Document) Kind() MediaKind     { return MediaDocument }
func (Location) Kind() MediaKind     { return MediaLocation }
func (Contact) Kind() MediaKind      { return MediaContact }
func (WebPage) Kind() MediaKind      { return MediaWebPage }
func (UnknownMedia) Kind() MediaKind { return MediaUnknown }

// MediaDescriptor is the normalized description of an attachment.
// Base64, MimeType and FileExt are set only for photos and documents
// whose content was retrieved.
type MediaDescriptor struct {
	Kind     MediaKind
	Details  map[string]any
	Base64   string
	MimeType string
	FileExt  string
}

// HasPayload reports whether the binary content is attached.
func (d MediaDescriptor) HasPayload() bool {
	return d.Base64 != ""
}

// Error returns the failure recorded for the item, if any.
func (d MediaDescriptor) Error() string {
	msg, _ := d.Details[DetailError].(string)

	return msg
}
