// Package extract parses a raw payload as XML and normalizes its date/price records.
// Three record shapes are tried in order and the first one that yields records is applied
// to the whole document.
package extract

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/jonathan/basket-scraper/internal/types"
)

// Options configures an Extractor.
type Options struct {
	// Currency is appended to every record. Defaults to types.DefaultCurrency.
	Currency string
	// Names overrides the shape vocabulary; empty lists fall back to DefaultShapeNames.
	Names  ShapeNames
	Logger zerolog.Logger
}

// Result is the outcome of a successful parse.
type Result struct {
	Records   types.RecordBatch
	Shape     types.Shape
	Namespace string
}

// NoMatch reports that the document parsed but no shape produced a record.
func (r *Result) NoMatch() bool {
	return r.Shape == types.ShapeNone
}

// Extractor turns payloads into record batches.
type Extractor struct {
	currency string
	shapes   []shape
	logger   zerolog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	currency := strings.TrimSpace(opts.Currency)
	if currency == "" {
		currency = types.DefaultCurrency
	}
	names := opts.Names.withDefaults()

	return &Extractor{
		currency: currency,
		shapes: []shape{
			attributePair{names: names},
			childElements{names: names},
			attributeNameDate{names: names},
		},
		logger: opts.Logger,
	}
}

// Extract parses payload and returns its records.
// A malformed document returns an *ExtractionError and no result. A well-formed document
// without records returns an empty result whose NoMatch reports true, and a nil error.
func (e *Extractor) Extract(payload *types.RawPayload) (*Result, error) {
	if payload == nil || strings.TrimSpace(payload.Text) == "" {
		return nil, malformed("empty payload", nil)
	}

	text, err := locatePayload(payload.Text)
	if err != nil {
		return nil, malformed("could not locate XML payload", err)
	}

	root, err := parseTree(strings.NewReader(escapeNumericAttrNames(text)))
	if err != nil {
		return nil, malformed("parse failed", err)
	}

	doc := &document{root: root, namespace: root.name.Space, currency: e.currency}
	log := e.logger.With().
		Str("provenance", string(payload.Provenance)).
		Str("namespace", doc.namespace).
		Logger()

	for _, s := range e.shapes {
		records := s.attempt(doc)
		if len(records) == 0 {
			log.Debug().Str("shape", string(s.kind())).Msg("shape produced no records")
			continue
		}

		log.Info().Str("shape", string(s.kind())).Int("records", len(records)).Msg("extracted records")
		return &Result{Records: records, Shape: s.kind(), Namespace: doc.namespace}, nil
	}

	log.Warn().Str("root", root.name.Local).Msg("no record shape matched; extracted zero records")
	return &Result{Records: types.RecordBatch{}, Shape: types.ShapeNone, Namespace: doc.namespace}, nil
}
