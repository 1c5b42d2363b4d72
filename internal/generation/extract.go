package generation

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// The extraction policy is an ordered list of pattern matchers applied to
// the raw reply body. The first matcher that recognizes an image wins; when
// none match, the text content is returned as a Result of KindText. New
// reply shapes are supported by appending a matcher, without touching call
// sites.
var matchers = []func(body []byte) (*Result, bool){
	matchContentImageElement,
	matchImageList,
	matchDataURIInText,
	matchBareBase64,
}

// dataURIRE recognizes a base64 image data URI embedded in text.
var dataURIRE = regexp.MustCompile(`data:(image/[a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/]+=*)`)

// base64RE matches a string made only of the base64 alphabet (with optional
// padding), used by the bare-blob heuristic.
var base64RE = regexp.MustCompile(`^[A-Za-z0-9+/\s]+=*$`)

// minBareBase64Len guards the bare-blob heuristic: anything shorter is
// treated as ordinary text, not an image.
const minBareBase64Len = 1024

// Extract normalizes a raw generation reply body into a Result. It never
// fails: an unrecognized payload degrades to a text Result carrying the
// reply's text content (or the raw body when even that is missing).
func Extract(body []byte) *Result {
	for _, m := range matchers {
		if res, ok := m(body); ok {
			return res
		}
	}
	if txt := replyText(body); txt != "" {
		return TextResult(txt)
	}
	return TextResult(strings.TrimSpace(string(body)))
}

// replyText returns the plain-text content of the first choice, tolerating
// both string-valued and list-valued content fields.
func replyText(body []byte) string {
	content := gjson.GetBytes(body, "choices.0.message.content")
	if content.Type == gjson.String {
		return strings.TrimSpace(content.String())
	}
	if content.IsArray() {
		var b strings.Builder
		for _, el := range content.Array() {
			if el.Get("type").String() == "text" {
				b.WriteString(el.Get("text").String())
			}
		}
		return strings.TrimSpace(b.String())
	}
	return ""
}

// matchContentImageElement finds a structured image element inside a
// list-valued message content.
func matchContentImageElement(body []byte) (*Result, bool) {
	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.IsArray() {
		return nil, false
	}
	for _, el := range content.Array() {
		if el.Get("type").String() != "image_url" {
			continue
		}
		if url := el.Get("image_url.url").String(); url != "" {
			return fromURL(url), true
		}
	}
	return nil, false
}

// matchImageList finds a message-level list of image references, either
// bare URL strings or objects wrapping one.
func matchImageList(body []byte) (*Result, bool) {
	images := gjson.GetBytes(body, "choices.0.message.images")
	if !images.IsArray() {
		return nil, false
	}
	for _, el := range images.Array() {
		var url string
		switch {
		case el.Type == gjson.String:
			url = el.String()
		default:
			url = el.Get("image_url.url").String()
			if url == "" {
				url = el.Get("url").String()
			}
		}
		if url != "" {
			return fromURL(url), true
		}
	}
	return nil, false
}

// matchDataURIInText scans the text content for an embedded image data URI.
func matchDataURIInText(body []byte) (*Result, bool) {
	txt := replyText(body)
	if txt == "" {
		return nil, false
	}
	m := dataURIRE.FindStringSubmatch(txt)
	if m == nil {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return nil, false
	}
	return BytesResult(data, m[1]), true
}

// matchBareBase64 treats a sufficiently long reply made only of base64
// characters as an un-wrapped image blob.
func matchBareBase64(body []byte) (*Result, bool) {
	txt := replyText(body)
	compact := strings.Join(strings.Fields(txt), "")
	if len(compact) < minBareBase64Len || !base64RE.MatchString(txt) {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, false
	}
	return BytesResult(data, "image/png"), true
}

// fromURL classifies an extracted reference: data URIs decode to inline
// bytes, anything else stays a URL.
func fromURL(url string) *Result {
	if m := dataURIRE.FindStringSubmatch(url); m != nil {
		if data, err := base64.StdEncoding.DecodeString(m[2]); err == nil {
			return BytesResult(data, m[1])
		}
	}
	return URLResult(url)
}
