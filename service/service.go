// Package service resolves the page a request targets, runs it through the
// router and packages the reply.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lmsassist/dom"
	"lmsassist/router"

	"go.uber.org/zap"
)

// ErrNoPage is returned when an envelope carries neither markup nor a URL.
var ErrNoPage = errors.New("request has no page")

// Fetcher loads a page over HTTP.
type Fetcher interface {
	Page(ctx context.Context, url string) (*dom.Page, error)
}

// LivePages runs fn against a page open in a real browser and replays its
// mutations there.
type LivePages interface {
	Do(ctx context.Context, url string, fn func(*dom.Page) error) error
}

// Service handles request envelopes
type Service struct {
	fetcher Fetcher
	live    LivePages
	log     *zap.Logger
}

// New creates a service. fetcher and live may be nil; requests that need
// them then fail with ErrNoPage.
func New(fetcher Fetcher, live LivePages, log *zap.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		live:    live,
		log:     log,
	}
}

// Handle runs the request against the envelope's snapshot, or the page
// fetched from its URL when no markup was posted. The mutations in the
// reply are for the caller to replay.
func (s *Service) Handle(ctx context.Context, e router.Envelope) (router.Reply, error) {
	start := time.Now()
	req := router.Decode(e)
	if _, ok := req.(router.Unknown); ok {
		s.log.Warn("unknown request type", zap.String("id", e.ID), zap.String("type", e.Type))
		return reply(e, router.Dispatch(nil, req), nil), nil
	}

	p, err := s.page(ctx, e)
	if err != nil {
		return router.Reply{}, err
	}

	res := router.Dispatch(p, req)
	journal := p.Journal()
	s.log.Info("request handled",
		zap.String("id", e.ID),
		zap.String("type", e.Type),
		zap.String("url", p.Location()),
		zap.Int("mutations", len(journal)),
		zap.Duration("took", time.Since(start)))

	return reply(e, res, journal), nil
}

// HandleLive opens the envelope's URL in the browser pool, runs the request
// there and applies its mutations to the live page.
func (s *Service) HandleLive(ctx context.Context, e router.Envelope) (router.Reply, error) {
	req := router.Decode(e)
	if _, ok := req.(router.Unknown); ok {
		return reply(e, router.Dispatch(nil, req), nil), nil
	}
	if s.live == nil || e.Page == nil || e.Page.URL == "" {
		return router.Reply{}, ErrNoPage
	}

	var (
		res     router.Response
		journal []dom.Mutation
	)
	err := s.live.Do(ctx, normalizeURL(e.Page.URL), func(p *dom.Page) error {
		res = router.Dispatch(p, req)
		journal = p.Journal()
		return nil
	})
	if err != nil {
		return router.Reply{}, fmt.Errorf("live request failed: %w", err)
	}

	s.log.Info("live request handled",
		zap.String("id", e.ID),
		zap.String("type", e.Type),
		zap.Int("mutations", len(journal)))
	return reply(e, res, journal), nil
}

func (s *Service) page(ctx context.Context, e router.Envelope) (*dom.Page, error) {
	if e.Page == nil {
		return nil, ErrNoPage
	}
	if e.Page.HTML != "" {
		return dom.Parse(*e.Page)
	}
	if e.Page.URL == "" || s.fetcher == nil {
		return nil, ErrNoPage
	}

	p, err := s.fetcher.Page(ctx, normalizeURL(e.Page.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	return p, nil
}

func reply(e router.Envelope, res router.Response, journal []dom.Mutation) router.Reply {
	if journal == nil {
		journal = []dom.Mutation{}
	}
	return router.Reply{ID: e.ID, Result: res, Mutations: journal}
}

func normalizeURL(u string) string {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return "https://" + u
	}
	return u
}
