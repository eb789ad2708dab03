// Package util provides utility functions for content hashing and front matter parsing.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"

	"github.com/mmarkdown/mmark/v2/mast"
)

// ExtendedTitleData is mmark front matter plus the number of bytes it occupied.
type ExtendedTitleData struct {
	*mast.TitleData
	Consumed int
}

// Tags returns the front matter keywords, which the importer uses as blog tags.
func (e *ExtendedTitleData) Tags() []string {
	if e == nil || e.TitleData == nil {
		return nil
	}
	return e.Keyword
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

func GetFrontMatter(md []byte) (*ExtendedTitleData, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	delimiter := []byte("%%%")

	// Check if md is long enough to contain the delimiter
	if len(md) < 2*len(delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	first := bytes.Index(md[:len(delimiter)+1], delimiter)
	if first == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	second := bytes.Index(md[first+len(delimiter):], delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	frontMatter := md[len(delimiter) : end-len(delimiter)-1]
	info := &ExtendedTitleData{
		TitleData: &mast.TitleData{},
	}

	if _, err := toml.Decode(string(frontMatter), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = end

	return info, nil
}

// SplitFrontMatter separates front matter from the markdown body. Documents
// without valid front matter come back whole with nil info.
func SplitFrontMatter(md []byte) (*ExtendedTitleData, []byte) {
	info, err := GetFrontMatter(md)
	if err != nil {
		return nil, md
	}

	body := bytes.TrimLeft(markdown.NormalizeNewlines(md), "\n \t\r")
	return info, bytes.TrimLeft(body[info.Consumed:], "\n")
}
