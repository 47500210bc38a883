package converter

import (
	"context"
	"log/slog"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/htmlcodec"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/normalize"
)

// CodecRegistry manages codecs and routes content by MIME type or file
// extension.
//
// Thread-safe for concurrent access.
type CodecRegistry struct {
	mu     sync.RWMutex
	byExt  map[string]docsysSvc.Codec // key: file extension (e.g., ".html")
	byMime map[string]docsysSvc.Codec // key: media type without parameters
	byName map[string]docsysSvc.Codec
}

// NewCodecRegistry creates a registry with the HTML, Markdown and plain
// text codecs pre-registered.
func NewCodecRegistry(engine *normalize.Engine, logger *slog.Logger) *CodecRegistry {
	registry := &CodecRegistry{
		byExt:  make(map[string]docsysSvc.Codec),
		byMime: make(map[string]docsysSvc.Codec),
		byName: make(map[string]docsysSvc.Codec),
	}

	html := htmlcodec.NewCodec(engine, logger)
	registry.Register(NewHTMLConverter(html))
	registry.Register(NewMarkdownConverter(html, logger))
	registry.Register(NewTextConverter(engine))

	return registry
}

// Register adds a codec and associates it with its extensions, media types
// and name. A later registration replaces an earlier one for the same key.
//
// Extensions are automatically normalized to lowercase with leading dot.
func (r *CodecRegistry) Register(codec docsysSvc.Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range codec.SupportedExtensions() {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.byExt[ext] = codec
	}
	for _, mt := range codec.MimeTypes() {
		r.byMime[strings.ToLower(mt)] = codec
	}
	r.byName[codec.Name()] = codec
}

// GetCodec retrieves a codec for the given file extension.
// Returns nil if no codec is registered for this extension.
//
// Extension lookup is case-insensitive.
func (r *CodecRegistry) GetCodec(fileExt string) docsysSvc.Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExt[strings.ToLower(fileExt)]
}

// ForMimeType retrieves a codec for a media type. Parameters such as
// charset are ignored. Returns nil if none is registered.
func (r *CodecRegistry) ForMimeType(mimeType string) docsysSvc.Codec {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byMime[mt]
}

// ByName retrieves a codec by its Name.
func (r *CodecRegistry) ByName(name string) docsysSvc.Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[strings.ToLower(name)]
}

// ForFile picks a codec for a file: by declared media type first, then by
// extension. Returns nil if neither is known.
func (r *CodecRegistry) ForFile(filename, mimeType string) docsysSvc.Codec {
	if mimeType != "" {
		if codec := r.ForMimeType(mimeType); codec != nil {
			return codec
		}
	}
	return r.GetCodec(filepath.Ext(filename))
}

// Decode automatically selects the appropriate codec and parses content.
//
// Returns a *domain.UnsupportedTypeError if no codec handles the file.
func (r *CodecRegistry) Decode(ctx context.Context, filename, mimeType string, content []byte) (*doctree.Document, error) {
	codec := r.ForFile(filename, mimeType)
	if codec == nil {
		return nil, &domain.UnsupportedTypeError{Name: filename, MimeType: mimeType}
	}
	return codec.Decode(ctx, content)
}

// SupportedExtensions returns all registered file extensions, sorted.
func (r *CodecRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
