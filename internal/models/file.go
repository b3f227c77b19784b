package models

// StoredFile describes one file held by the storage engine.
type StoredFile struct {
	Name string
	Size int64
}
