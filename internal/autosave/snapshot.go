package autosave

import (
	"encoding/json"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/debemdeboas/inkpot/internal/model"
)

// Snapshot is the full state of a document being edited at one point in time.
type Snapshot struct {
	Title   string       `json:"title"`
	Content string       `json:"content"`
	Tags    []string     `json:"tags"`
	Status  model.Status `json:"status"`
}

func SnapshotFromBlog(b *model.Blog) Snapshot {
	return Snapshot{
		Title:   b.Title,
		Content: b.Content,
		Tags:    slices.Clone(b.Tags),
		Status:  b.Status,
	}
}

// Normalize returns a detached copy in canonical form: NFC text, trimmed title
// and content, title whitespace runs collapsed, tags trimmed and deduplicated
// in first-seen order, empty status treated as draft.
func (s Snapshot) Normalize() Snapshot {
	out := Snapshot{
		Title:   strings.Join(strings.Fields(norm.NFC.String(s.Title)), " "),
		Content: strings.TrimSpace(norm.NFC.String(s.Content)),
		Tags:    make([]string, 0, len(s.Tags)),
		Status:  s.Status,
	}
	if out.Status == "" {
		out.Status = model.StatusDraft
	}

	for _, tag := range s.Tags {
		tag = strings.TrimSpace(norm.NFC.String(tag))
		if tag == "" || slices.Contains(out.Tags, tag) {
			continue
		}
		out.Tags = append(out.Tags, tag)
	}

	return out
}

// Canonical is the serialization used for change detection. Snapshots that
// differ only in whitespace or Unicode composition serialize identically.
func (s Snapshot) Canonical() string {
	n := s.Normalize()
	// A struct of strings and a string slice cannot fail to marshal.
	data, _ := json.Marshal(n)
	return string(data)
}

// Empty reports whether both title and content are blank.
func (s Snapshot) Empty() bool {
	return strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Content) == ""
}

func (s Snapshot) Fields() model.BlogFields {
	return model.BlogFields{
		Title:   s.Title,
		Content: s.Content,
		Tags:    slices.Clone(s.Tags),
		Status:  s.Status,
	}
}
