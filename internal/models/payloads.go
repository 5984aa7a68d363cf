package models

// These structs describe the hand-off between the dashboard and the storage bucket
// that feeds the processing pipeline.

// UploadRequest is a single file staged for processing. It lives for one upload call.
type UploadRequest struct {
	Key         string
	Payload     []byte
	ContentType string
	// Selected is false when the form was submitted without choosing a file.
	Selected bool
}

// UploadOutcome reports whether the object was durably stored.
type UploadOutcome struct {
	Accepted bool
	Reason   string
	Object   string
}
