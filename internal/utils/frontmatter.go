package utils

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// NoteMetadata represents parsed frontmatter metadata of a Markdown note
type NoteMetadata struct {
	Title string   // Optional: used as a heading when the body has none
	Date  any      // Optional: coerced by the sanitizer
	Tags  []string // Optional: extra search words
}

// HasFrontmatter reports whether content starts with a frontmatter delimiter
func HasFrontmatter(content []byte) bool {
	return bytes.HasPrefix(content, []byte("---\n")) || bytes.HasPrefix(content, []byte("---\r\n"))
}

// ParseFrontmatter parses YAML frontmatter and markdown content from a file
// Expected format:
// ---
// title: Groceries
// date: 2024-03-01
// ---
// # Markdown content here
func ParseFrontmatter(content []byte) (map[string]interface{}, string, error) {
	// Check for frontmatter delimiters
	if !HasFrontmatter(content) {
		return nil, "", errors.New("missing frontmatter: file must start with '---'")
	}

	// Find the closing delimiter
	var closingDelim int
	lines := bytes.Split(content, []byte("\n"))

	// Skip the opening "---" line
	for i := 1; i < len(lines); i++ {
		line := bytes.TrimSpace(lines[i])
		if bytes.Equal(line, []byte("---")) {
			closingDelim = i
			break
		}
	}

	if closingDelim == 0 {
		return nil, "", errors.New("missing closing frontmatter delimiter '---'")
	}

	// Extract YAML content (between the delimiters)
	yamlContent := bytes.Join(lines[1:closingDelim], []byte("\n"))

	var metadata map[string]interface{}
	if err := yaml.Unmarshal(yamlContent, &metadata); err != nil {
		return nil, "", fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}

	markdownLines := lines[closingDelim+1:]
	markdownContent := string(bytes.Join(markdownLines, []byte("\n")))

	return metadata, markdownContent, nil
}

// SplitFrontmatter separates optional frontmatter from a Markdown body.
// Content without frontmatter is returned unchanged with empty metadata.
// Malformed frontmatter is an error; the caller decides whether to keep the
// content as-is.
func SplitFrontmatter(content []byte) (*NoteMetadata, string, error) {
	if !HasFrontmatter(content) {
		return &NoteMetadata{}, string(content), nil
	}
	raw, body, err := ParseFrontmatter(content)
	if err != nil {
		return nil, "", err
	}
	meta, err := ValidateNoteMetadata(raw)
	if err != nil {
		return nil, "", err
	}
	return meta, body, nil
}

// ValidateNoteMetadata validates frontmatter metadata and converts to NoteMetadata
func ValidateNoteMetadata(metadata map[string]interface{}) (*NoteMetadata, error) {
	if metadata == nil {
		return &NoteMetadata{}, nil
	}

	var title string
	if titleVal, exists := metadata["title"]; exists {
		titleStr, ok := titleVal.(string)
		if !ok {
			return nil, errors.New("frontmatter field 'title' must be a string")
		}
		title = titleStr
	}

	// left for date coercion
	date := metadata["date"]

	var tags []string
	if tagsVal, exists := metadata["tags"]; exists {
		switch v := tagsVal.(type) {
		case []interface{}:
			for _, tag := range v {
				if tagStr, ok := tag.(string); ok {
					tags = append(tags, tagStr)
				}
			}
		case string:
			tags = append(tags, v)
		default:
			return nil, errors.New("frontmatter field 'tags' must be a list of strings")
		}
	}

	return &NoteMetadata{
		Title: title,
		Date:  date,
		Tags:  tags,
	}, nil
}
