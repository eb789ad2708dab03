// Package render turns markdown into HTML for imported blogs.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/debemdeboas/inkpot/internal/cache"
	"github.com/debemdeboas/inkpot/internal/util"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/rs/zerolog"
)

// DefaultStyle is the chroma style used when none is given.
const DefaultStyle = "github"

var renderLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

var formatter = chromahtml.New(
	chromahtml.WithClasses(true),
	chromahtml.PreventSurroundingPre(false),
)

// HighlightCode renders a code block with chroma. Unknown languages fall back
// to plain text and highlighting failures return the escaped source.
func HighlightCode(code, language, style string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := styles.Get(style)
	if s == nil {
		s = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		renderLogger.Warn().Err(err).Str("language", language).Msg("Failed to tokenise code block")
		return "<pre>" + escape(code) + "</pre>"
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		renderLogger.Warn().Err(err).Str("language", language).Msg("Failed to format code block")
		return "<pre>" + escape(code) + "</pre>"
	}
	return buf.String()
}

// Markdown renders a markdown body to HTML with highlighted fenced code.
func Markdown(md []byte, style string) []byte {
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if code, ok := node.(*ast.CodeBlock); ok && entering {
				var lang string
				if info := code.Info; info != nil {
					lang = strings.TrimSpace(string(info))
				}
				fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(code.Literal), lang, style))
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.DefinitionLists | parser.AutoHeadingIDs |
			parser.Footnotes | parser.NoIntraEmphasis,
	).Parse(markdown.NormalizeNewlines(md))

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

var renderCacheMutex sync.Mutex

// MarkdownCached renders through the shared rendered-markdown cache keyed by
// content hash and style.
func MarkdownCached(md []byte, style string) []byte {
	hash := util.ContentHash(md)

	if cached, found := cache.GetRenderedMarkdown(hash, style); found {
		renderLogger.Debug().Str("content_hash", hash).Str("style", style).Msg("Cache hit for rendered markdown")
		return cached.HTML
	}

	renderCacheMutex.Lock()
	defer renderCacheMutex.Unlock()

	if cached, found := cache.GetRenderedMarkdown(hash, style); found {
		return cached.HTML
	}

	renderLogger.Debug().Str("content_hash", hash).Str("style", style).Msg("Cache miss for rendered markdown")
	html := Markdown(md, style)
	cache.SetRenderedMarkdown(hash, style, html)
	return html
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")

func escape(s string) string {
	return escaper.Replace(s)
}
