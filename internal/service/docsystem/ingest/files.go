package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/DougReeder/notes-together-sub002/internal/config"
	"github.com/DougReeder/notes-together-sub002/internal/domain"
	"github.com/DougReeder/notes-together-sub002/internal/domain/models/doctree"
	docsysSvc "github.com/DougReeder/notes-together-sub002/internal/domain/services/docsystem"
	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/objecturl"
)

var errFileTooLarge = errors.New("file too large")

// fileResult is the converted content of one file.
type fileResult struct {
	nodes  []*doctree.Node
	text   string
	notice *docsysSvc.Notice
}

// fromFiles reads and converts dropped or pasted files concurrently.
// Results keep the order of files. A file that fails becomes an error
// block and a notice; the others are unaffected.
func (d *Dispatcher) fromFiles(ctx context.Context, files []docsysSvc.File, target docsysSvc.Target) (*docsysSvc.IngestResult, error) {
	results := make([]fileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			results[i] = d.readFile(gctx, f, target)
			return nil
		})
	}
	// per-file failures are recorded in results
	_ = g.Wait()

	out := &docsysSvc.IngestResult{}
	var texts []string
	for _, r := range results {
		out.Nodes = append(out.Nodes, r.nodes...)
		if r.text != "" {
			texts = append(texts, r.text)
		}
		if r.notice != nil {
			out.Notices = append(out.Notices, *r.notice)
		}
	}
	out.Text = strings.Join(texts, "\n\n")
	return out, nil
}

// readFile reads and converts one file.
func (d *Dispatcher) readFile(ctx context.Context, f docsysSvc.File, target docsysSvc.Target) fileResult {
	if err := ctx.Err(); err != nil {
		return d.failed(f, target, err)
	}

	data, err := readLimited(f)
	if err != nil {
		return d.failed(f, target, err)
	}

	mediaType, charset := detectType(f, data)
	d.logger.Debug("file read", "file", f.Name, "type", mediaType, "size", len(data))

	if strings.HasPrefix(mediaType, "image/") {
		return d.imageFile(f, mediaType, data, target)
	}

	codec := d.registry.ForFile(f.Name, mediaType)
	if f.Type == "" || mediaType == "text/plain" {
		// a detected or generic type is weaker evidence than the extension
		if byExt := d.registry.GetCodec(filepath.Ext(f.Name)); byExt != nil {
			codec = byExt
		}
	}
	if codec == nil {
		unsupported := &domain.UnsupportedTypeError{Name: f.Name, MimeType: mediaType}
		d.logger.Warn("unsupported file type", "file", f.Name, "type", mediaType)
		return fileResult{notice: &docsysSvc.Notice{
			Level:   docsysSvc.NoticeWarning,
			Message: unsupported.Error(),
			File:    f.Name,
		}}
	}

	data, err = decodeCharset(data, charset)
	if err != nil {
		return d.failed(f, target, err)
	}

	switch target {
	case docsysSvc.TargetMarkdown:
		if codec.Name() == "html" {
			text, err := d.htmlToMarkdown(string(data))
			if err != nil {
				return d.failed(f, target, err)
			}
			return fileResult{text: text}
		}
		return fileResult{text: string(data)}

	case docsysSvc.TargetPlain:
		if codec.Name() == "html" {
			doc, err := codec.Decode(ctx, data)
			if err != nil {
				return d.failed(f, target, err)
			}
			return fileResult{text: doctree.PlainText(doc)}
		}
		return fileResult{text: string(data)}
	}

	doc, err := codec.Decode(ctx, data)
	if err != nil {
		return d.failed(f, target, err)
	}
	return fileResult{nodes: doc.Children}
}

// imageFile turns an image into a data URL.
func (d *Dispatcher) imageFile(f docsysSvc.File, mediaType string, data []byte, target docsysSvc.Target) fileResult {
	if target == docsysSvc.TargetPlain {
		return fileResult{notice: &docsysSvc.Notice{
			Level:   docsysSvc.NoticeInfo,
			Message: "images can't be added to plain text notes",
			File:    f.Name,
		}}
	}

	if mediaType != "image/svg+xml" {
		data, mediaType = d.downscale(f.Name, data, mediaType)
	}
	url := objecturl.DataURL(mediaType, data)
	alt := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))

	if target == docsysSvc.TargetMarkdown {
		return fileResult{text: "![" + escapeLinkText(alt) + "](" + url + ")"}
	}
	return fileResult{nodes: []*doctree.Node{
		doctree.NewElement(doctree.TypeParagraph, doctree.NewImage(url, "", alt)),
	}}
}

// downscale shrinks an image whose longest side exceeds the limit. Images
// that are small enough, or can't be decoded, are returned unchanged.
func (d *Dispatcher) downscale(name string, data []byte, mediaType string) ([]byte, string) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		d.logger.Debug("image not decodable, kept as is", "file", name, "error", err)
		return data, mediaType
	}
	if d.maxImageDimension <= 0 || (cfg.Width <= d.maxImageDimension && cfg.Height <= d.maxImageDimension) {
		return data, mediaType
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		d.logger.Debug("image not decodable, kept as is", "file", name, "error", err)
		return data, mediaType
	}

	w, h := fit(cfg.Width, cfg.Height, d.maxImageDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	outType := "image/jpeg"
	switch format {
	case "png", "gif":
		outType = "image/png"
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		d.logger.Warn("image re-encode failed", "file", name, "error", err)
		return data, mediaType
	}

	d.logger.Debug("image downscaled", "file", name, "from", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), "to", fmt.Sprintf("%dx%d", w, h))
	return buf.Bytes(), outType
}

// fit scales w and h so the longer side is limit, keeping the aspect ratio.
func fit(w, h, limit int) (int, int) {
	if w >= h {
		return limit, max(1, h*limit/w)
	}
	return max(1, w*limit/h), limit
}

// failed records a file that could not be read or converted.
func (d *Dispatcher) failed(f docsysSvc.File, target docsysSvc.Target, err error) fileResult {
	d.logger.Warn("file read failed", "file", f.Name, "error", err)

	msg := fmt.Sprintf("Could not read %q: %v", f.Name, err)
	r := fileResult{notice: &docsysSvc.Notice{
		Level:   docsysSvc.NoticeError,
		Message: msg,
		File:    f.Name,
	}}
	switch target {
	case docsysSvc.TargetMarkdown:
		r.text = "> " + msg
	case docsysSvc.TargetPlain:
		r.text = msg
	default:
		r.nodes = []*doctree.Node{
			doctree.NewElement(doctree.TypeQuote,
				doctree.NewElement(doctree.TypeParagraph, doctree.NewText(msg)),
			),
		}
	}
	return r
}

// readLimited reads a whole file, refusing files over config.MaxFileSize.
func readLimited(f docsysSvc.File) ([]byte, error) {
	if f.Size > config.MaxFileSize {
		return nil, errFileTooLarge
	}
	if f.Open == nil {
		return nil, errors.New("file has no content")
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, config.MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > config.MaxFileSize {
		return nil, errFileTooLarge
	}
	return data, nil
}

// detectType returns the media type of a file and its charset, if any.
// The declared type is used unless it is missing or generic.
func detectType(f docsysSvc.File, data []byte) (string, string) {
	declared := f.Type
	if declared == "" || strings.HasPrefix(declared, "application/octet-stream") {
		declared = mimetype.Detect(data).String()
	}

	mediaType, params, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(declared)), ""
	}
	return mediaType, params["charset"]
}

// decodeCharset converts text in a named charset to UTF-8.
func decodeCharset(data []byte, charset string) ([]byte, error) {
	switch strings.ToLower(charset) {
	case "", "utf-8", "utf8", "us-ascii":
		return data, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		// unknown charsets are read as UTF-8
		return data, nil
	}
	out, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", charset, err)
	}
	return out, nil
}
