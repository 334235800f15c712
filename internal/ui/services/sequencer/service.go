// Package sequencer issues search requests and guarantees that only the
// response to the most recently issued request is ever applied.
package sequencer

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"typeahead/internal/domain"
	"typeahead/internal/eventbus"
	"typeahead/internal/logging"
	"typeahead/internal/searchapi"
)

// Options configures a Service
type Options struct {
	ID      string // scopes ResponseMsg to this sequencer
	Fetcher searchapi.Fetcher
	Limit   int
	Policy  RetryPolicy
	Bus     eventbus.EventBus
	Logger  *log.Logger
}

// Service mints request tokens and runs fetches with retry. Issue, Accept
// and Invalidate belong to the update loop; the fetch itself runs in the
// returned command.
type Service struct {
	id      string
	ctx     context.Context
	fetcher searchapi.Fetcher
	limit   int
	policy  RetryPolicy
	bus     eventbus.EventBus
	logger  *log.Logger

	// latest is written only by the update loop. Fetch goroutines read it to
	// stop retrying once superseded.
	latest atomic.Uint64

	sleep func(ctx context.Context, d time.Duration) error
}

// NewService creates a sequencer. Cancelling ctx stops every retry loop.
func NewService(ctx context.Context, opts Options) *Service {
	s := &Service{
		id:      opts.ID,
		ctx:     ctx,
		fetcher: opts.Fetcher,
		limit:   opts.Limit,
		policy:  opts.Policy,
		bus:     opts.Bus,
		logger:  opts.Logger,
		sleep:   sleepContext,
	}
	if s.policy.MaxAttempts < 1 {
		s.policy.MaxAttempts = 1
	}
	if s.bus == nil {
		s.bus = eventbus.NullBus{}
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s
}

// Issue mints a token, records it as the latest and returns the command that
// fetches query. The command always yields a ResponseMsg.
func (s *Service) Issue(query domain.Query) tea.Cmd {
	token := Token(s.latest.Add(1))
	s.bus.Publish(eventbus.RequestIssuedEvent{WidgetID: s.id, Query: query, Token: uint64(token)})
	s.logger.Debug("request issued", "query", query, "token", token)

	return func() tea.Msg {
		page, attempts, err := s.run(token, query)
		msg := ResponseMsg{
			SequencerID: s.id,
			Token:       token,
			Query:       query,
			Page:        page,
			Err:         err,
			Attempts:    attempts,
		}
		if err != nil {
			msg.Message = searchapi.UserMessage(err)
		}
		return msg
	}
}

// Accept reports whether msg answers the latest issued request. Responses
// for superseded tokens are dropped here and never reach UI state.
func (s *Service) Accept(msg ResponseMsg) bool {
	if msg.SequencerID != s.id {
		return false
	}
	latest := s.Latest()
	if msg.Token != latest {
		s.logger.Debug("stale response discarded", "query", msg.Query, "token", msg.Token, "latest", latest)
		s.bus.Publish(eventbus.StaleResponseDiscardedEvent{
			WidgetID: s.id,
			Query:    msg.Query,
			Token:    uint64(msg.Token),
			Latest:   uint64(latest),
		})
		return false
	}
	return true
}

// Invalidate advances the latest token without issuing, so any response
// still in flight is discarded
func (s *Service) Invalidate() {
	s.latest.Add(1)
}

// Latest returns the most recently minted token
func (s *Service) Latest() Token {
	return Token(s.latest.Load())
}

// ID returns the id carried by this sequencer's messages
func (s *Service) ID() string {
	return s.id
}

func (s *Service) superseded(token Token) bool {
	return Token(s.latest.Load()) != token
}

func (s *Service) run(token Token, query domain.Query) (domain.ResultPage, int, error) {
	req := searchapi.Request{Query: query.String(), Limit: s.limit, Page: 1}

	for attempt := 1; ; attempt++ {
		page, err := s.fetcher.Fetch(s.ctx, req)
		if err == nil {
			return page, attempt, nil
		}

		if !searchapi.IsTransient(err) || attempt >= s.policy.MaxAttempts {
			s.logger.Warn("request failed", "query", query, "token", token, "attempts", attempt, "err", err)
			return domain.ResultPage{}, attempt, err
		}
		if s.superseded(token) {
			return domain.ResultPage{}, attempt, ErrSuperseded
		}

		delay := s.policy.Backoff(attempt)
		s.logger.Debug("retrying request", "query", query, "token", token, "attempt", attempt, "delay", delay, "err", err)
		s.bus.Publish(eventbus.RequestRetryingEvent{
			WidgetID: s.id,
			Query:    query,
			Token:    uint64(token),
			Attempt:  attempt,
			Delay:    delay,
			Err:      err,
		})

		if err := s.sleep(s.ctx, delay); err != nil {
			return domain.ResultPage{}, attempt, err
		}
		if s.superseded(token) {
			return domain.ResultPage{}, attempt, ErrSuperseded
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
