package models

// LocalFile is an uploaded file already written to local disk.
type LocalFile struct {
	Path        string // Absolute path of the temporary file
	Filename    string // Original client file name
	ContentType string // Content-Type from the multipart header, may be empty
}

// Asset is a file stored on the remote media host.
type Asset struct {
	URL      string // Stable public URL
	PublicID string // Identifier used for deletion
}
