package model

import "time"

// Document is a receipt, warranty or record kept in a user's vault.
// ImageURL and ImageFileID are either both empty or both set.
type Document struct {
	ID             string     `json:"id"`
	OwnerID        string     `json:"owner_id"`
	Title          string     `json:"title"`
	CategoryID     string     `json:"category_id"`
	CategoryName   string     `json:"category_name"`
	Store          string     `json:"store"`
	UploadDate     time.Time  `json:"upload_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Notes          string     `json:"notes"`
	ImageURL       string     `json:"image_url"`
	ImageFileID    string     `json:"image_file_id"`
	// Revision is bumped on every update. Nothing compares it yet; it is kept
	// so conflict detection can be added without a data migration.
	Revision  int       `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasImage reports whether the document references an attachment.
func (d Document) HasImage() bool {
	return d.ImageFileID != ""
}

// ImageAsset locates a local image file to be attached to a document.
type ImageAsset struct {
	URI      string
	Name     string
	MimeType string
}

// ImageAttachment is a blob produced by an upload.
type ImageAttachment struct {
	FileID    string `json:"file_id"`
	URL       string `json:"url"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// Draft carries the fields of a document to create.
type Draft struct {
	Title          string
	CategoryID     string
	Store          string
	UploadDate     *time.Time
	ExpirationDate *time.Time
	Notes          string
	Image          *ImageAsset
}

// Patch describes an update. A nil field keeps the stored value; a non-nil
// field replaces it, so a pointer to "" clears it.
type Patch struct {
	Title           *string
	CategoryID      *string
	Store           *string
	Notes           *string
	ExpirationDate  *time.Time
	ClearExpiration bool

	// ImageChanged selects the attachment branch: Image set uploads a
	// replacement, Image nil clears the attachment fields.
	ImageChanged bool
	Image        *ImageAsset
}

// SortField names a sortable document field.
type SortField string

const (
	SortByUploadDate     SortField = "uploadDate"
	SortByTitle          SortField = "title"
	SortByExpirationDate SortField = "expirationDate"
)

// Valid reports whether f is a known sort field.
func (f SortField) Valid() bool {
	switch f {
	case SortByUploadDate, SortByTitle, SortByExpirationDate:
		return true
	}
	return false
}

// SortOrder is a sort direction.
type SortOrder string

const (
	Ascending  SortOrder = "ASC"
	Descending SortOrder = "DESC"
)

// Valid reports whether o is a known direction.
func (o SortOrder) Valid() bool {
	return o == Ascending || o == Descending
}
