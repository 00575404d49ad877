package constants

// controller registry keys
const (
	Auth = iota
	Content
	Editor
	Status
)

// TagAll is the sentinel tag that disables tag filtering
const TagAll = "All"

// ExcerptLength is the number of characters kept when deriving an excerpt from HTML content
const ExcerptLength = 150

// DefaultReadTime is the read time in minutes of a fresh blog draft
const DefaultReadTime = 5

// MaxUploadBytes limits the request body of an image attachment
const MaxUploadBytes = 10 << 20
