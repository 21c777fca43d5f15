// Package media uploads local files to a remote media host and returns
// hosted URLs.
package media

import "context"

// Uploader stores a local file on the media host.
//
// Upload returns the public URL of the stored object. An empty localPath
// yields an empty URL with no error, so callers can treat optional uploads
// as best-effort.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}
