// Package placeholder renders the fallback image shown when a product image
// cannot be fetched or displayed in time.
package placeholder

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"unicode/utf8"
)

const (
	// ContentType of every rendered placeholder.
	ContentType = "image/svg+xml"

	// MaxLabelLength bounds the label text embedded in the image.
	MaxLabelLength = 24

	defaultLabel = "Image"
)

const (
	svgHead = `<svg xmlns='http://www.w3.org/2000/svg' width='1200' height='600'>` +
		`<defs><linearGradient id='g' x1='0' y1='0' x2='1' y2='1'>` +
		`<stop stop-color='#e5e7eb' offset='0'/>` +
		`<stop stop-color='#f1f5f9' offset='1'/>` +
		`</linearGradient></defs>` +
		`<rect width='100%' height='100%' fill='url(#g)'/>` +
		`<text x='50%' y='50%' dominant-baseline='middle' text-anchor='middle' ` +
		`font-family='system-ui, -apple-system, Segoe UI, Roboto, Ubuntu, Cantarell, Noto Sans, Helvetica Neue, Arial' ` +
		`font-size='36' fill='#475569'>`
	svgTail = `</text></svg>`
)

// Label returns the text actually embedded for label: the default when empty,
// otherwise its first MaxLabelLength characters.
func Label(label string) string {
	if label == "" {
		return defaultLabel
	}
	if utf8.RuneCountInString(label) <= MaxLabelLength {
		return label
	}
	runes := []rune(label)
	return string(runes[:MaxLabelLength])
}

// SVG renders the placeholder image for label.
func SVG(label string) []byte {
	var buf bytes.Buffer
	buf.Grow(len(svgHead) + len(svgTail) + 8*MaxLabelLength)
	buf.WriteString(svgHead)
	// EscapeText only fails on writer errors; bytes.Buffer never returns one.
	_ = xml.EscapeText(&buf, []byte(Label(label)))
	buf.WriteString(svgTail)
	return buf.Bytes()
}

// DataURI renders the placeholder as an embedded reference that can be used
// directly as an image source.
func DataURI(label string) string {
	return "data:" + ContentType + ";base64," + base64.StdEncoding.EncodeToString(SVG(label))
}
