package models

// ThumbnailJob asks the worker to produce resized variants of an image node.
// It is a queue message, not a stored entity; the owner id scopes the lookup
// so a job for a reassigned or deleted file terminates as not-found.
type ThumbnailJob struct {
	UserID string `json:"userId"`
	FileID string `json:"fileId"`
}

// ThumbnailWidths is the fixed set of generated variants, widest first.
var ThumbnailWidths = []int{500, 250, 100}

// WelcomeJob asks the worker to greet a freshly registered user.
type WelcomeJob struct {
	UserID string `json:"userId"`
}
