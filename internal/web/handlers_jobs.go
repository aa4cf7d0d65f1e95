package web

import (
	"net/http"

	"github.com/pushkind/dantes/internal/dispatch"
	"github.com/pushkind/dantes/internal/logging"
)

// handleCrawl enqueues a full crawl of the source site.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	crawler, err := s.requestCrawler(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	job := dispatch.CrawlJob{
		CrawlerID: crawler.ID,
		URL:       crawler.URL,
		Selector:  crawler.Selector,
	}
	if err := s.publisher.TriggerCrawl(r.Context(), job); err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("crawl requested", "crawler_id", crawler.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handlePriceRefresh enqueues a revisit of every known product page of
// the crawler. A crawler with no product URLs yields 400 rather than an
// empty job.
func (s *Server) handlePriceRefresh(w http.ResponseWriter, r *http.Request) {
	crawler, err := s.requestCrawler(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	urls, err := s.store.ListProductURLs(r.Context(), crawler.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	job := dispatch.PriceJob{CrawlerID: crawler.ID, URLs: urls}
	if err := s.publisher.TriggerPriceRefresh(r.Context(), job); err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("price refresh requested",
		"crawler_id", crawler.ID,
		"urls", len(urls),
	)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}
