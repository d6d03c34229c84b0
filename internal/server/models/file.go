package models

import "time"

// File classification, derived from the declared content type at upload.
const (
	FileTypeImage    = "IMAGE"
	FileTypeVideo    = "VIDEO"
	FileTypeDocument = "DOCUMENT"
)

// File describes metadata for one uploaded blob. The content itself lives in
// object storage under BlobKey; OwnerEmail never changes after creation.
type File struct {
	ID string

	// StorageName is the collision-resistant name derived from a random
	// identifier plus the original name.
	StorageName string
	// OriginalName is the user-visible display name; rename updates it.
	OriginalName string

	ContentType string
	SizeBytes   int64

	// BlobKey is the object-storage key of the content blob.
	BlobKey string

	OwnerEmail string
	// FileType is IMAGE, VIDEO or DOCUMENT.
	FileType   string
	UploadedAt time.Time
}
