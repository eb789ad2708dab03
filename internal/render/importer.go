package render

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/debemdeboas/inkpot/internal/model"
	"github.com/debemdeboas/inkpot/internal/util"
	"github.com/pkg/errors"
)

// Document is a markdown file converted into blog fields.
type Document struct {
	Path   string
	Title  string
	Tags   []string
	HTML   string
	Source []byte
}

// Fields returns the document as draft blog fields.
func (d *Document) Fields() model.BlogFields {
	return model.BlogFields{
		Title:   d.Title,
		Content: d.HTML,
		Tags:    d.Tags,
		Status:  model.StatusDraft,
	}
}

// Convert splits off the %%% front matter and renders the body. The title
// comes from the front matter, then the first heading, then fallback.
func Convert(md []byte, fallback, style string) *Document {
	info, body := util.SplitFrontMatter(md)

	doc := &Document{
		Title:  strings.TrimSpace(fallback),
		Tags:   info.Tags(),
		Source: md,
	}
	if info != nil && strings.TrimSpace(info.Title) != "" {
		doc.Title = strings.TrimSpace(info.Title)
	} else if h := firstHeading(body); h != "" {
		doc.Title = h
	}

	doc.HTML = string(MarkdownCached(body, style))
	return doc
}

// ConvertFile reads one markdown file, using its base name as fallback title.
func ConvertFile(path, style string) (*Document, error) {
	md, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc := Convert(md, name, style)
	doc.Path = path
	return doc, nil
}

// ConvertDir converts every .md file under dir, sorted by path. A path to a
// single file converts just that file.
func ConvertDir(dir, style string) ([]*Document, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "stat import path")
	}
	if !fi.IsDir() {
		doc, err := ConvertFile(dir, style)
		if err != nil {
			return nil, err
		}
		return []*Document{doc}, nil
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "walking import path")
	}
	sort.Strings(paths)

	docs := make([]*Document, 0, len(paths))
	for _, p := range paths {
		doc, err := ConvertFile(p, style)
		if err != nil {
			return nil, err
		}
		renderLogger.Debug().Str("path", p).Str("title", doc.Title).Msg("Converted markdown file")
		docs = append(docs, doc)
	}
	return docs, nil
}

func firstHeading(body []byte) string {
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if bytes.HasPrefix(line, []byte("# ")) {
			return strings.TrimSpace(string(line[2:]))
		}
	}
	return ""
}
