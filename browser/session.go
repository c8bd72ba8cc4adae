package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"lmsassist/dom"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// framesJS collects the documents of same-origin iframes keyed the way
// dom.Page looks them up: id first, then name.
const framesJS = `(function () {
  var out = {};
  document.querySelectorAll("iframe").forEach(function (f) {
    var key = f.id || f.name;
    if (!key) return;
    try {
      if (f.contentDocument && f.contentDocument.documentElement) {
        out[key] = f.contentDocument.documentElement.outerHTML;
      }
    } catch (e) {}
  });
  return out;
})()`

const editorsJS = `(function () {
  if (!window.tinymce || typeof window.tinymce.get !== "function") return [];
  return window.tinymce.get().map(function (e) { return e.id; });
})()`

// applyJS replays dom.Mutation values against the live document and
// returns how many took effect.
const applyJS = `(function (mutations) {
  var applied = 0;
  mutations.forEach(function (m) {
    if (m.op === "editor-content") {
      var ed = window.tinymce && window.tinymce.get(m.target);
      if (ed) { ed.setContent(m.value); applied++; }
      return;
    }
    var doc = document;
    if (m.frame) {
      var host = document.getElementById(m.frame) || document.getElementsByName(m.frame)[0];
      if (!host || !host.contentDocument) return;
      doc = host.contentDocument;
    }
    var el = doc.querySelector(m.target);
    if (!el) return;
    switch (m.op) {
    case "click": el.click(); break;
    case "check": el.checked = true; break;
    case "set-value":
      if ("value" in el) { el.value = m.value; } else { el.textContent = m.value; }
      break;
    case "set-html": el.innerHTML = m.value; break;
    case "dispatch": el.dispatchEvent(new Event(m.value, { bubbles: true })); break;
    case "add-class": el.classList.add(m.value); break;
    default: return;
    }
    applied++;
  });
  return applied;
})(%s)`

// Snapshot navigates tab to url and captures the rendered page.
func Snapshot(tab context.Context, url string) (dom.Snapshot, error) {
	var snap dom.Snapshot
	err := chromedp.Run(tab,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&snap.URL),
		chromedp.OuterHTML("html", &snap.HTML, chromedp.ByQuery),
		chromedp.Evaluate(framesJS, &snap.Frames),
		chromedp.Evaluate(editorsJS, &snap.Editors),
	)
	if err != nil {
		return dom.Snapshot{}, fmt.Errorf("failed to capture %s: %w", url, err)
	}
	return snap, nil
}

// Apply replays the journal on the live page and returns the number of
// mutations the page accepted.
func Apply(tab context.Context, mutations []dom.Mutation) (int, error) {
	if len(mutations) == 0 {
		return 0, nil
	}
	script, err := applyScript(mutations)
	if err != nil {
		return 0, err
	}
	var applied int
	if err := chromedp.Run(tab, chromedp.Evaluate(script, &applied)); err != nil {
		return 0, fmt.Errorf("failed to apply mutations: %w", err)
	}
	return applied, nil
}

func applyScript(mutations []dom.Mutation) (string, error) {
	raw, err := json.Marshal(mutations)
	if err != nil {
		return "", fmt.Errorf("failed to encode mutations: %w", err)
	}
	return fmt.Sprintf(applyJS, raw), nil
}

// Do loads url in a pooled tab, hands the captured page to fn and replays
// whatever fn changed. The page's journal is left intact for the caller.
func (pool *Pool) Do(ctx context.Context, url string, fn func(*dom.Page) error) error {
	tab, release, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to get browser context: %w", err)
	}
	defer release()

	runCtx, cancel := context.WithTimeout(tab, pool.opts.NavigateTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	snap, err := Snapshot(runCtx, url)
	if err != nil {
		return err
	}

	p, err := dom.Parse(snap)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}

	journal := p.Journal()
	applied, err := Apply(runCtx, journal)
	if err != nil {
		return err
	}
	if applied != len(journal) {
		pool.log.Warn("some mutations did not apply",
			zap.String("url", url),
			zap.Int("recorded", len(journal)),
			zap.Int("applied", applied))
	}
	return nil
}
