// Package browser drives real LMS pages through headless Chrome: it
// captures a page into a dom.Snapshot and replays the recorded mutations.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrClosed is returned by Acquire after Shutdown.
var ErrClosed = errors.New("browser pool closed")

// Options configures the pool and the Chrome instances it launches.
type Options struct {
	Size            int
	Headless        bool
	ExecPath        string
	UserAgent       string
	NavigateTimeout time.Duration
	AcquireTimeout  time.Duration
}

// Pool manages a fixed set of browser tabs for reuse.
type Pool struct {
	opts Options
	log  *zap.Logger

	contexts    chan context.Context
	cancelFuncs map[context.Context]context.CancelFunc
	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu          sync.Mutex
	initialized bool
	closed      bool
}

// New creates a browser pool. Chrome is not started until the first
// Acquire.
func New(opts Options, log *zap.Logger) *Pool {
	if opts.Size < 1 {
		opts.Size = 1
	}
	return &Pool{
		opts:        opts,
		log:         log,
		contexts:    make(chan context.Context, opts.Size),
		cancelFuncs: make(map[context.Context]context.CancelFunc),
	}
}

// allocatorOptions returns the Chrome flags for the pool.
func (pool *Pool) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", pool.opts.Headless),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1366, 900),
	)
	if pool.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(pool.opts.UserAgent))
	}
	if pool.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(pool.opts.ExecPath))
	}
	return opts
}

// Initialize launches Chrome and opens the pool's tabs. It is called lazily
// by Acquire and is safe to call more than once.
func (pool *Pool) Initialize() error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.closed {
		return ErrClosed
	}
	if pool.initialized {
		return nil
	}

	pool.allocCtx, pool.allocCancel = chromedp.NewExecAllocator(context.Background(), pool.allocatorOptions()...)

	for i := 0; i < pool.opts.Size; i++ {
		ctx, cancel := chromedp.NewContext(pool.allocCtx, chromedp.WithLogf(pool.log.Sugar().Debugf))

		chromedp.ListenTarget(ctx, func(ev interface{}) {
			if ev, ok := ev.(*page.EventJavascriptDialogOpening); ok {
				pool.log.Debug("dismissing dialog", zap.String("message", ev.Message))
				go func() {
					_ = chromedp.Run(ctx, page.HandleJavaScriptDialog(true))
				}()
			}
		})

		if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
			cancel()
			pool.log.Warn("failed to start browser tab", zap.Error(err))
			continue
		}

		pool.contexts <- ctx
		pool.cancelFuncs[ctx] = cancel
	}

	if len(pool.cancelFuncs) == 0 {
		pool.allocCancel()
		return fmt.Errorf("failed to start any browser tab")
	}

	pool.initialized = true
	pool.log.Info("browser pool initialized", zap.Int("size", len(pool.cancelFuncs)))
	return nil
}

// Acquire takes a tab from the pool, waiting up to the acquire timeout.
// The returned function resets the tab and puts it back.
func (pool *Pool) Acquire(ctx context.Context) (context.Context, func(), error) {
	if err := pool.Initialize(); err != nil {
		return nil, nil, err
	}

	timer := time.NewTimer(pool.opts.AcquireTimeout)
	defer timer.Stop()

	select {
	case tab := <-pool.contexts:
		return tab, func() { pool.release(tab) }, nil
	case <-timer.C:
		return nil, nil, fmt.Errorf("timeout getting browser context from pool")
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
}

func (pool *Pool) release(tab context.Context) {
	refreshCtx, cancel := context.WithTimeout(tab, 3*time.Second)
	defer cancel()

	// Clear session state so the next caller starts clean.
	_ = chromedp.Run(refreshCtx,
		network.ClearBrowserCookies(),
		chromedp.Navigate("about:blank"),
	)

	pool.mu.Lock()
	defer pool.mu.Unlock()
	if pool.closed {
		return
	}
	pool.contexts <- tab
}

// Shutdown closes all tabs and the browser.
func (pool *Pool) Shutdown() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	pool.closed = true
	if !pool.initialized {
		return
	}

	for ctx, cancel := range pool.cancelFuncs {
		cancel()
		delete(pool.cancelFuncs, ctx)
	}
	if pool.allocCancel != nil {
		pool.allocCancel()
	}
	for len(pool.contexts) > 0 {
		<-pool.contexts
	}

	pool.initialized = false
	pool.log.Info("browser pool shut down")
}
