package objecturl

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
)

// Resolver builds Substitutions for the object URLs of a document.
type Resolver struct {
	source      docsysSvc.BlobSource
	concurrency int
	logger      *slog.Logger
}

// NewResolver creates a resolver reading from source, fetching at most
// concurrency blobs at once.
func NewResolver(source docsysSvc.BlobSource, concurrency int, logger *slog.Logger) *Resolver {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Resolver{
		source:      source,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Resolve fetches every object URL used by an image or link in doc and
// returns data URL substitutes for them. A URL that cannot be fetched is
// logged and left out of the result, so the serializer degrades it. The
// document is only read; Resolve may run on a snapshot.
func (r *Resolver) Resolve(ctx context.Context, doc *doctree.Document) (Substitutions, error) {
	urls := ObjectURLs(doc)
	subs := make(Substitutions, len(urls))
	if len(urls) == 0 {
		return subs, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, u := range urls {
		u := u
		g.Go(func() error {
			data, mimeType, err := r.source.Fetch(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.Warn("object url resolution failed",
					"url", u,
					"error", err,
				)
				return nil
			}

			mu.Lock()
			subs[u] = DataURL(mimeType, data)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("object urls resolved",
		"found", len(urls),
		"resolved", len(subs),
	)
	return subs, nil
}

// ObjectURLs lists the distinct object URLs in doc, in document order.
func ObjectURLs(doc *doctree.Document) []string {
	seen := make(map[string]bool)
	var urls []string
	doc.Walk(func(n *doctree.Node, _ doctree.Path) bool {
		if (n.Type == doctree.TypeImage || n.Type == doctree.TypeLink) &&
			IsObjectURL(n.URL) && !seen[n.URL] {
			seen[n.URL] = true
			urls = append(urls, n.URL)
		}
		return true
	})
	return urls
}
