package core

// Persisted state layout. Every named collection lives under one of these
// keys in the KeyValueStore; blob assets are keyed by entity ID, the fixed
// logo key, or store-generated keys for gallery images.
const (
	KeyUsers           = "users"
	KeyStudents        = "students"
	KeyClasses         = "classes"
	KeyFeeStructure    = "feeStructure"
	KeyFeesTypes       = "feesTypes"
	KeyGalleryCaptions = "galleryImageCaptions"
	KeyGalleryOrder    = "galleryImageOrder"
	KeySchoolSettings  = "schoolSettings"

	// LogoBlobKey is the fixed BlobStore key of the school logo.
	LogoBlobKey = "schoolLogo"
)

type (
	// KeyValueStore is a persistent mapping from string key to a
	// JSON-serializable value, with an in-memory mirror kept in sync for all
	// consumers of the same store instance.
	//
	// Every successful Set/Update persists a JSON snapshot synchronously and
	// then notifies subscribers of that key. Storage exhaustion surfaces as
	// the driver's error and is not recovered.
	KeyValueStore interface {
		// Get decodes the snapshot stored under key into out. A missing key
		// leaves out untouched and returns nil: the caller's zero value is
		// the default.
		Get(key string, out interface{}) error
		Set(key string, value interface{}) error
		// Update runs a read-modify-write of the raw snapshot under the
		// store lock. fn receives nil when the key is absent; returning an
		// error aborts without writing.
		Update(key string, fn func(raw []byte) ([]byte, error)) error
		// Subscribe registers fn to run after every successful write of key.
		// The returned cancel func is idempotent.
		Subscribe(key string, fn func()) (cancel func())
	}

	// BlobStore is a persistent mapping from a key to an opaque binary asset.
	// Keys returns store iteration order, which is not a business ordering.
	BlobStore interface {
		// Add stores blob under a store-generated opaque key.
		Add(blob []byte) (key string, err error)
		// Put stores blob under a caller-supplied key, replacing any
		// previous content.
		Put(key string, blob []byte) error
		// Get returns the blob stored under key, or ErrNotFound.
		Get(key string) ([]byte, error)
		Keys() ([]string, error)
		// Delete removes the blob under key; deleting a missing key is a
		// no-op.
		Delete(key string) error
	}
)
