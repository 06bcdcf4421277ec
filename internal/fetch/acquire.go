package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/basket-scraper/internal/types"
)

// AcquirerConfig configures an Acquirer for one pipeline run.
type AcquirerConfig struct {
	HTTP *Options
	// Renderer enables the browser strategies. Nil skips them.
	Renderer Renderer
	// PreWait bounds the wait for the XML viewer's pre element; clamped to MaxPreWait.
	PreWait time.Duration
	Logger  zerolog.Logger
}

// Acquirer returns the best-effort raw payload for a URL by trying strategies in a fixed order.
type Acquirer struct {
	strategies []strategy
	renderer   Renderer
	logger     zerolog.Logger
}

// NewAcquirer creates an acquirer with the http, browser-pre and browser-document strategies.
func NewAcquirer(cfg AcquirerConfig) *Acquirer {
	httpOpts := cfg.HTTP
	if httpOpts == nil {
		httpOpts = DefaultOptions()
	}
	wait := cfg.PreWait
	if wait <= 0 || wait > MaxPreWait {
		wait = MaxPreWait
	}

	return &Acquirer{
		strategies: []strategy{
			httpStrategy{options: httpOpts},
			browserPreStrategy{wait: wait},
			browserDocumentStrategy{},
		},
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
	}
}

// Acquire runs the strategies in order and returns the first non-empty payload.
// Any browser session opened along the way is closed before returning.
func (a *Acquirer) Acquire(ctx context.Context, url string) (*types.RawPayload, error) {
	scope := &sessionScope{ctx: ctx, url: url, renderer: a.renderer, logger: a.logger}
	defer scope.release()

	var failures []AttemptFailure
	for _, s := range a.strategies {
		log := a.logger.With().Str("strategy", string(s.name())).Str("url", url).Logger()
		log.Info().Msg("attempting acquisition strategy")

		text, err := s.attempt(ctx, url, scope)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrEmptyContent
		}
		if err != nil {
			log.Warn().Err(err).Msg("acquisition strategy failed")
			failures = append(failures, AttemptFailure{Strategy: s.name(), Err: err})
			continue
		}

		log.Info().Int("bytes", len(text)).Msg("acquired payload")
		return &types.RawPayload{URL: url, Text: text, Provenance: s.name()}, nil
	}

	return nil, &AcquisitionError{URL: url, Attempts: failures}
}

type strategy interface {
	name() types.Provenance
	attempt(ctx context.Context, url string, scope *sessionScope) (string, error)
}

type httpStrategy struct {
	options *Options
}

func (httpStrategy) name() types.Provenance { return types.ProvenanceHTTP }

func (s httpStrategy) attempt(ctx context.Context, url string, _ *sessionScope) (string, error) {
	result, err := URL(ctx, url, s.options)
	if err != nil {
		return "", err
	}
	if !LooksLikeXML(result.Body) {
		return "", fmt.Errorf("%w (content type %q)", ErrNotXML, result.ContentType)
	}
	return result.Body, nil
}

type browserPreStrategy struct {
	wait time.Duration
}

func (browserPreStrategy) name() types.Provenance { return types.ProvenanceBrowserPre }

func (s browserPreStrategy) attempt(_ context.Context, _ string, scope *sessionScope) (string, error) {
	session, err := scope.navigated()
	if err != nil {
		return "", err
	}
	return session.WaitText("pre", s.wait)
}

type browserDocumentStrategy struct{}

func (browserDocumentStrategy) name() types.Provenance { return types.ProvenanceBrowserDocument }

func (browserDocumentStrategy) attempt(_ context.Context, _ string, scope *sessionScope) (string, error) {
	session, err := scope.navigated()
	if err != nil {
		return "", err
	}
	return session.DocumentMarkup()
}

// sessionScope lazily opens at most one browser session per Acquire call and shares its navigation.
type sessionScope struct {
	ctx      context.Context
	url      string
	renderer Renderer
	logger   zerolog.Logger

	session Session
	opened  bool
	err     error
}

func (s *sessionScope) navigated() (Session, error) {
	if s.renderer == nil {
		return nil, ErrBackendUnavailable
	}
	if s.opened {
		if s.err != nil {
			return nil, s.err
		}
		return s.session, nil
	}
	s.opened = true

	session, err := s.renderer.Open(s.ctx)
	if err != nil {
		s.err = err
		return nil, err
	}
	s.session = session

	if err := session.Navigate(s.url); err != nil {
		s.err = err
		return nil, err
	}
	return session, nil
}

func (s *sessionScope) release() {
	if s.session == nil {
		return
	}
	if err := s.session.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to close browser session")
	}
	s.session = nil
}
