// Package generation calls the external image-generation service and
// normalizes its schema-less replies. The service returns a chat-completions
// style JSON payload whose image-bearing shape varies between deployments;
// extract.go turns whatever arrives into one Result.
package generation

// Kind discriminates the Result union.
type Kind int

const (
	// KindURL carries a dereferenceable image URL.
	KindURL Kind = iota
	// KindBytes carries inline binary image data.
	KindBytes
	// KindText carries a plain-text reply (diagnostics, refusals).
	KindText
)

// Result is the normalized outcome of one generation call: exactly one of
// an image URL, inline image bytes, or plain text. It is transient; the
// conversation layer consumes it immediately.
type Result struct {
	Kind     Kind
	URL      string
	Bytes    []byte
	MimeType string
	Text     string
}

// URLResult wraps a dereferenceable image URL.
func URLResult(url string) *Result { return &Result{Kind: KindURL, URL: url} }

// BytesResult wraps inline image data.
func BytesResult(data []byte, mimeType string) *Result {
	return &Result{Kind: KindBytes, Bytes: data, MimeType: mimeType}
}

// TextResult wraps a plain-text reply.
func TextResult(text string) *Result { return &Result{Kind: KindText, Text: text} }
