package filestore

import "time"

// ObjectInfo is the metadata of one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64 // -1 when unknown
	ContentType  string
	ETag         string
	LastModified time.Time

	// IsDir marks a common prefix returned by a non-recursive listing.
	IsDir bool
}

// ListOptions filters ListObjects.
type ListOptions struct {
	Prefix    string
	Recursive bool // false groups keys below the next "/" into IsDir entries
	Limit     int  // 0 is no limit
}
