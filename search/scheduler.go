package search

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/noelzubin/papers_search/cache"
	"github.com/noelzubin/papers_search/library"
	"github.com/noelzubin/papers_search/transport"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DefaultDelay is the quiet period before bodies are searched.
const DefaultDelay = 300 * time.Millisecond

// Options configures a Scheduler.
type Options struct {
	Delay       time.Duration // quiet period before deep search
	Concurrency int           // max body fetches in flight per round, 0 is unlimited
	Clock       Clock
	Logger      *log.Logger
}

// Scheduler runs the two phase search. Titles are filtered synchronously on
// every Search call; once input has been quiet for Delay the bodies of the
// remaining text documents are fetched into the content cache and scanned.
//
// Every Search bumps a generation counter. A deep search round only publishes
// if its generation is still current when it completes, and a timer that was
// superseded before firing returns without fetching anything.
type Scheduler struct {
	index       *library.Index
	contents    *cache.Store[string]
	fetcher     transport.Fetcher
	delay       time.Duration
	concurrency int
	clock       Clock
	logger      *log.Logger

	mu      sync.Mutex
	result  Result
	timer   Timer
	cancel  context.CancelFunc
	closed  bool
	changes chan Result
	rounds  sync.WaitGroup
}

var _ Searcher = (*Scheduler)(nil)

// NewScheduler returns a scheduler listing every document of index.
func NewScheduler(index *library.Index, contents *cache.Store[string], fetcher transport.Fetcher, opts Options) *Scheduler {
	s := &Scheduler{
		index:       index,
		contents:    contents,
		fetcher:     fetcher,
		delay:       opts.Delay,
		concurrency: opts.Concurrency,
		clock:       opts.Clock,
		logger:      opts.Logger,
		changes:     make(chan Result, 1),
	}
	if s.delay <= 0 {
		s.delay = DefaultDelay
	}
	if s.clock == nil {
		s.clock = RealClock
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	s.result = Result{State: Idle, Documents: index.All()}
	return s
}

// Search publishes the title matches for query and returns them. The deep
// search for the same query is scheduled and any earlier one is cancelled.
// The returned slice must not be modified.
func (s *Scheduler) Search(query string) []*library.Document {
	nq := Normalize(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	gen := s.result.Generation + 1

	if nq == "" {
		all := s.index.All()
		s.publishLocked(Result{Query: nq, State: Idle, Documents: all, Generation: gen})
		return all
	}

	titles := lo.Filter(s.index.All(), func(d *library.Document, _ int) bool {
		return TitleMatches(d, nq)
	})
	s.publishLocked(Result{Query: nq, State: TitleFiltered, Documents: titles, Generation: gen})

	if !s.closed {
		s.timer = s.clock.AfterFunc(s.delay, func() { s.deepSearch(gen, nq, titles) })
		s.logger.Debug("deep search scheduled", "query", nq, "generation", gen, "titles", len(titles))
	}
	return titles
}

// Current returns the visible result.
func (s *Scheduler) Current() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Changes delivers the latest result every time it changes. Only the newest
// result is buffered, so a slow reader skips intermediate ones but never sees
// an older result after a newer one.
func (s *Scheduler) Changes() <-chan Result {
	return s.changes
}

// Close cancels pending and in-flight deep searches and waits for running
// rounds to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()

	s.rounds.Wait()
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) publishLocked(r Result) {
	s.result = r
	select {
	case <-s.changes:
	default:
	}
	select {
	case s.changes <- r:
	default:
	}
}

func (s *Scheduler) deepSearch(gen uint64, nq string, titles []*library.Document) {
	s.mu.Lock()
	if s.closed || gen != s.result.Generation {
		// Stop raced with the timer firing.
		s.mu.Unlock()
		return
	}
	s.timer = nil
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.publishLocked(Result{Query: nq, State: DeepSearchPending, Documents: titles, Generation: gen})
	s.rounds.Add(1)
	s.mu.Unlock()

	defer s.rounds.Done()
	defer cancel()

	docs := s.index.All()
	candidates := lo.Filter(docs, func(d *library.Document, _ int) bool {
		return d.Kind == library.Text && d.Path != "" && !TitleMatches(d, nq) && !s.contents.Has(d.Path)
	})
	candidates = lo.UniqBy(candidates, func(d *library.Document) string { return d.Path })
	s.logger.Debug("deep search started", "query", nq, "generation", gen, "candidates", len(candidates))

	s.fetchAll(ctx, candidates)

	content := lo.Filter(docs, func(d *library.Document, _ int) bool {
		return !TitleMatches(d, nq) && ContentMatches(d, nq, s.contents)
	})
	merged := lo.UniqBy(append(append([]*library.Document{}, titles...), content...), documentKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.result.Generation {
		s.logger.Debug("deep search discarded", "query", nq, "generation", gen)
		return
	}
	s.cancel = nil
	s.publishLocked(Result{Query: nq, State: DeepSearchSettled, Documents: merged, Generation: gen})
	s.logger.Debug("deep search settled", "query", nq, "generation", gen, "content", len(content), "total", len(merged))
}

// fetchAll fills the content cache for docs and returns once every fetch has
// settled. A failed fetch is cached as empty text so it is not retried; a
// fetch cut short because the round was superseded is not cached at all.
func (s *Scheduler) fetchAll(ctx context.Context, docs []*library.Document) {
	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for _, d := range docs {
		d := d
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			body, err := s.fetcher.Fetch(ctx, d.Path)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Debug("deep search fetch failed", "path", d.Path, "err", err)
				body = ""
			}
			s.contents.Put(d.Path, body)
			return nil
		})
	}

	_ = g.Wait()
}

// documentKey dedupes by path. Documents without a path are never openable
// and are kept apart by identity.
func documentKey(d *library.Document) any {
	if d.Path == "" {
		return d
	}
	return d.Path
}
