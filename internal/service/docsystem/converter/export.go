package converter

import (
	"mime"
	"strings"
	"unicode"

	"github.com/DougReeder/notes-together-sub002/internal/service/docsystem/converter/sanitizer"
)

// maxFileNameLength is in characters, before the extension.
const maxFileNameLength = 64

// extensionBySubtype maps a media subtype to the file extension used when
// exporting.
var extensionBySubtype = map[string]string{
	"markdown":             ".md",
	"x-markdown":           ".md",
	"plain":                ".txt",
	"html":                 ".html",
	"vcard":                ".vcf",
	"x-vcard":              ".vcf",
	"calendar":             ".ics",
	"csv":                  ".csv",
	"tab-separated-values": ".tsv",
	"json":                 ".json",
	"xml":                  ".xml",
	"rtf":                  ".rtf",
}

// File is serialized note content ready to be written or shared.
type File struct {
	Name     string
	MimeType string
	Content  []byte
}

// NewExportFile wraps content in a File named after the first line of title.
// The extension comes from the media subtype; unknown or unparseable types
// get ".txt".
func NewExportFile(title, mimeType, content string) File {
	ext := ".txt"
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		if _, sub, ok := strings.Cut(mt, "/"); ok {
			if e, ok := extensionBySubtype[sub]; ok {
				ext = e
			}
		}
	} else {
		mimeType = "text/plain"
	}

	return File{
		Name:     FileBaseName(title) + ext,
		MimeType: mimeType,
		Content:  []byte(content),
	}
}

// FileBaseName derives a portable file name from the first line of title.
func FileBaseName(title string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(title), "\n")

	var b strings.Builder
	for _, r := range line {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	name := strings.Trim(strings.Join(strings.Fields(b.String()), " "), ". ")
	name = sanitizer.Truncate(name, maxFileNameLength)
	if name == "" {
		return "note"
	}
	return name
}
