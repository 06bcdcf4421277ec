package types

// Provenance names the acquisition strategy that produced a payload.
type Provenance string

// Known provenance tags
const (
	ProvenanceHTTP            Provenance = "http"
	ProvenanceBrowserPre      Provenance = "browser-pre"
	ProvenanceBrowserDocument Provenance = "browser-document"
	ProvenanceFile            Provenance = "file"
)

// RawPayload is the text obtained from the source before XML parsing.
type RawPayload struct {
	URL        string     `json:"url"`
	Text       string     `json:"-"`
	Provenance Provenance `json:"provenance"`
}

// Shape identifies the XML convention used to encode records in a document.
type Shape string

// Known document shapes, in the order they are tried
const (
	ShapeNone              Shape = "none"
	ShapeAttributePair     Shape = "attribute-pair"
	ShapeChildElements     Shape = "child-elements"
	ShapeAttributeNameDate Shape = "attribute-name-date"
)
