package models

import "time"

// Storage provider names recorded in StorageRef.Provider
const (
	ProviderBlob = "blob"
	ProviderCDN  = "cdn"
)

// ImageRecord is one catalogue entry describing a single uploaded image.
// The JSON names are both the wire format and the persisted document format.
type ImageRecord struct {
	ID       string         `json:"id"`
	Filename string         `json:"filename"`
	URL      string         `json:"url"`
	Storage  StorageRef     `json:"storage"`
	Title    string         `json:"title"`
	Alt      string         `json:"alt"`
	Tags     []string       `json:"tags"`
	Custom   map[string]any `json:"custom"`
	Size     int64          `json:"size"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	MimeType string         `json:"mimetype"`

	UploadedAt time.Time `json:"uploadedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// StorageRef identifies the binary behind a record at its storage provider.
// Which fields are populated depends on Provider:
//
//	blob: BlobURL, Pathname
//	cdn:  PublicID, Version, Signature
type StorageRef struct {
	Provider string `json:"provider"`

	BlobURL  string `json:"blobUrl,omitempty"`
	Pathname string `json:"pathname,omitempty"`

	PublicID  string `json:"public_id,omitempty"`
	Version   int    `json:"version,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// IsZero reports whether the ref points at nothing
func (r StorageRef) IsZero() bool {
	return r.Provider == "" && r.BlobURL == "" && r.Pathname == "" && r.PublicID == ""
}

// Clone returns a deep copy so callers can mutate tags/custom without
// touching a snapshot shared with other readers
func (r ImageRecord) Clone() ImageRecord {
	// tags and custom always serialize as [] and {}, never null
	out := r
	out.Tags = make([]string, len(r.Tags))
	copy(out.Tags, r.Tags)
	out.Custom = make(map[string]any, len(r.Custom))
	for k, v := range r.Custom {
		out.Custom[k] = v
	}
	return out
}

// Stats aggregates the whole catalogue
type Stats struct {
	Total     int            `json:"total"`
	ByFormat  map[string]int `json:"byFormat"`
	ByTag     map[string]int `json:"byTag"`
	TotalSize int64          `json:"totalSize"`
}
