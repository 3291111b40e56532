package models

// ManifestRecord is one row of the image-set CSV manifest. Index is the
// CSV row number (1-based, header excluded) so entry errors can point back
// at the offending line.
type ManifestRecord struct {
	Index    int
	Path     string
	Metadata map[string]string
}
