// Package preview decides how a stored document is presented to visitors.
// A document is classified once, by file extension, into a rendering
// strategy; the resulting descriptor tells the front end which viewer to
// mount and carries the fixed-geometry locked region that obscures the
// lower half of the preview.  The mask is a rendering-layer rule only: the
// underlying file stays byte-for-byte fetchable by any client that requests
// it directly.
package preview

import (
	"io"
	"path"
	"strings"
)

// Strategy is the rendering approach chosen for a document.
type Strategy int

const (
	// Unsupported shows a placeholder and fetches no content.
	Unsupported Strategy = iota
	// Embedded mounts the in-browser viewer (PDF and modern Word files).
	Embedded
	// Spreadsheet mounts the tabular viewer.
	Spreadsheet
	// Text renders a capped plain-text excerpt preformatted.
	Text
	// Image renders the file natively as an image.
	Image
	// SlideMockup shows a synthetic static slide; real slide content is
	// never rendered.
	SlideMockup
)

var strategyNames = map[Strategy]string{
	Unsupported: "unsupported",
	Embedded:    "embedded",
	Spreadsheet: "spreadsheet",
	Text:        "text",
	Image:       "image",
	SlideMockup: "slide_mockup",
}

func (s Strategy) String() string { return strategyNames[s] }

// Classify maps a file name to its rendering strategy and a short format
// label (the upper-cased extension).  Matching is case-insensitive; anything
// unrecognised is Unsupported.
func Classify(name string) (Strategy, string) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	label := strings.ToUpper(ext)
	switch ext {
	case "pdf", "docx":
		return Embedded, label
	case "xlsx", "xls", "csv":
		return Spreadsheet, label
	case "txt", "rtf":
		return Text, label
	case "jpg", "jpeg", "png", "gif":
		return Image, label
	case "pptx", "ppt":
		return SlideMockup, label
	default:
		// doc, odt, ods, odp and unknown extensions all land here.
		return Unsupported, label
	}
}

// MaxExcerptChars caps the text excerpt returned for Text previews.
const MaxExcerptChars = 5000

// Ellipsis marks a truncated excerpt.
const Ellipsis = "..."

// Excerpt reads at most MaxExcerptChars characters from r, appending the
// ellipsis marker when the source was longer.  The cap counts characters,
// not bytes, so multi-byte text is never split mid-rune.
func Excerpt(r io.Reader) (string, error) {
	// 4 bytes is the widest UTF-8 encoding, so this read is always enough
	// to know whether the source exceeds the cap.
	buf, err := io.ReadAll(io.LimitReader(r, 4*MaxExcerptChars+1))
	if err != nil {
		return "", err
	}
	runes := []rune(string(buf))
	if len(runes) > MaxExcerptChars {
		return string(runes[:MaxExcerptChars]) + Ellipsis, nil
	}
	return string(runes), nil
}

// States a descriptor can be in.  There is no automatic retry out of the
// error state; the call to action directs the visitor to contact support.
const (
	StateReady = "ready"
	StateError = "error"
)

// ContainerHeightPx is the fixed height of the preview viewport.  Scroll and
// gesture interaction inside it is suppressed; the viewer is look-only.
const ContainerHeightPx = 560

// LockedRegion describes the gradient-masked panel overlaying the preview.
type LockedRegion struct {
	// FromFraction is where the mask starts, measured from the top of the
	// container (0.5 = bottom half).
	FromFraction float64 `json:"from_fraction"`
	Gradient     bool    `json:"gradient"`
	CallToAction string  `json:"call_to_action"`
}

// Descriptor is everything a client needs to render a partial preview.
type Descriptor struct {
	State             string       `json:"state"`
	Strategy          string       `json:"strategy"`
	Format            string       `json:"format"`
	SourceURL         string       `json:"source_url"`
	ContainerHeightPx int          `json:"container_height_px"`
	Interactive       bool         `json:"interactive"`
	Locked            LockedRegion `json:"locked"`
	// Text carries the capped excerpt for the Text strategy only.
	Text string `json:"text,omitempty"`
	// Message explains an error state in visitor-safe terms.
	Message string `json:"message,omitempty"`
}

const callToAction = "Contact us for full access"

func baseDescriptor(strategy Strategy, format, sourceURL string) Descriptor {
	return Descriptor{
		State:             StateReady,
		Strategy:          strategy.String(),
		Format:            format,
		SourceURL:         sourceURL,
		ContainerHeightPx: ContainerHeightPx,
		Interactive:       false,
		Locked: LockedRegion{
			FromFraction: 0.5,
			Gradient:     true,
			CallToAction: callToAction,
		},
	}
}

// Describe builds the preview descriptor for a stored file.  open is invoked
// only for the Text strategy, which needs the file's leading bytes; every
// other strategy (Unsupported included) classifies without touching content.
// A failed read yields an error-state descriptor rather than an error: the
// preview endpoint always has something to show.
func Describe(fileName, sourceURL string, open func() (io.ReadCloser, error)) Descriptor {
	strategy, format := Classify(fileName)
	d := baseDescriptor(strategy, format, sourceURL)
	if strategy != Text {
		return d
	}
	rc, err := open()
	if err != nil {
		return errorDescriptor(d)
	}
	defer rc.Close()
	excerpt, err := Excerpt(rc)
	if err != nil {
		return errorDescriptor(d)
	}
	d.Text = excerpt
	return d
}

func errorDescriptor(d Descriptor) Descriptor {
	d.State = StateError
	d.Text = ""
	d.Message = "Preview unavailable. Please contact us for access to this document."
	return d
}
