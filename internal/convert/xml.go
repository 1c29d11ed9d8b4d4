package convert

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/spraakbanken/svt-crawler/internal/domain"
)

// MalformedRecordError marks a record whose raw payload does not match the
// expected article structure. The converter skips such records one at a
// time; a single bad upstream record must not block a year's output.
type MalformedRecordError struct {
	ID  string
	Err error
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %s: %v", e.ID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// articlesDoc is the root element of a per-year corpus document.
type articlesDoc struct {
	XMLName xml.Name   `xml:"articles"`
	Texts   []textElem `xml:"text"`
}

// textElem is one article element with flat paragraph structure.
type textElem struct {
	ID       string `xml:"id,attr,omitempty"`
	Date     string `xml:"date,attr,omitempty"`
	Section  string `xml:"section,attr,omitempty"`
	Title    string `xml:"title,attr,omitempty"`
	Subtitle string `xml:"subtitle,attr,omitempty"`
	URL      string `xml:"url,attr,omitempty"`
	Authors  string `xml:"authors,attr,omitempty"`
	Tags     string `xml:"tags,attr,omitempty"`

	Paragraphs []paragraphElem `xml:"p"`
}

// paragraphElem is one flat paragraph; nesting never survives conversion.
type paragraphElem struct {
	Type string `xml:"type,attr,omitempty"`
	Text string `xml:",chardata"`
}

// articlePayload is the subset of the raw article object the converter uses.
type articlePayload struct {
	ID                 json.Number  `json:"id"`
	Title              string       `json:"title"`
	Subtitle           string       `json:"subtitle"`
	SectionDisplayName string       `json:"sectionDisplayName"`
	URL                string       `json:"url"`
	Authors            []namedThing `json:"authors"`
	Tags               []namedThing `json:"tags"`
	StructuredLead     []bodyNode   `json:"structuredLead"`
	StructuredBody     []bodyNode   `json:"structuredBody"`
}

type namedThing struct {
	Name string `json:"name"`
}

// bodyNode is one node of the article's structured text tree.
type bodyNode struct {
	Type     string     `json:"type"`
	Content  string     `json:"content"`
	Children []bodyNode `json:"children"`
}

// mediaNodeTypes contribute no text to the corpus.
var mediaNodeTypes = map[string]bool{
	"svt-image":        true,
	"svt-video":        true,
	"svt-scribblefeed": true,
}

// recordToText converts one record into a corpus <text> element. The date
// attribute follows the same trust rule as bucket assignment.
func recordToText(rec *domain.Record, now time.Time) (*textElem, error) {
	if len(rec.RawPayload) == 0 {
		return nil, &MalformedRecordError{ID: rec.ID, Err: fmt.Errorf("empty payload")}
	}

	var payload articlePayload
	if err := json.Unmarshal(rec.RawPayload, &payload); err != nil {
		return nil, &MalformedRecordError{ID: rec.ID, Err: err}
	}

	elem := &textElem{
		ID:       payload.ID.String(),
		Section:  strings.TrimSpace(payload.SectionDisplayName),
		Title:    cleanText(payload.Title),
		Subtitle: cleanText(payload.Subtitle),
		URL:      absoluteURL(strings.TrimSpace(payload.URL)),
		Authors:  pipeJoin(payload.Authors),
		Tags:     pipeJoin(payload.Tags),
	}
	if elem.ID == "" {
		elem.ID = rec.ArticleID
	}

	if date, ok := rec.CorpusDate(now); ok {
		elem.Date = date.Format(time.RFC3339)
	}

	if title := cleanText(payload.Title); title != "" {
		elem.Paragraphs = append(elem.Paragraphs, paragraphElem{Type: "title", Text: title})
	}
	for _, text := range flattenNodes(payload.StructuredLead) {
		elem.Paragraphs = append(elem.Paragraphs, paragraphElem{Type: "lead", Text: text})
	}
	elem.Paragraphs = append(elem.Paragraphs, plainParagraphs(payload.StructuredBody)...)

	return elem, nil
}

// plainParagraphs flattens body nodes into untyped paragraph elements.
func plainParagraphs(nodes []bodyNode) []paragraphElem {
	texts := flattenNodes(nodes)
	out := make([]paragraphElem, 0, len(texts))
	for _, text := range texts {
		out = append(out, paragraphElem{Text: text})
	}
	return out
}

// flattenNodes turns a structured node list into flat paragraph texts.
// Every top-level node becomes at most one paragraph: nested paragraph or
// heading markup inside it is collapsed, media nodes contribute nothing, and
// nodes without any text are dropped entirely.
func flattenNodes(nodes []bodyNode) []string {
	var out []string
	for _, n := range nodes {
		var parts []string
		collectText(n, &parts)
		text := cleanText(strings.Join(parts, " "))
		if text == "" {
			continue
		}
		out = append(out, text)
	}
	return out
}

// collectText gathers the text spans under a node in document order.
func collectText(n bodyNode, parts *[]string) {
	if mediaNodeTypes[n.Type] {
		return
	}
	if s := strings.TrimSpace(n.Content); s != "" {
		*parts = append(*parts, s)
	}
	for _, child := range n.Children {
		collectText(child, parts)
	}
}

// cleanText trims and replaces non-breaking spaces with ordinary spaces.
func cleanText(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " ", " "))
}

// absoluteURL prefixes site-relative article URLs with the public site.
func absoluteURL(url string) string {
	if url == "" || strings.HasPrefix(url, "http") {
		return url
	}
	return "https://www.svt.se" + url
}

// pipeJoin renders names as a pipe-delimited, pipe-wrapped list, the format
// the downstream annotation tooling expects for multi-valued attributes.
func pipeJoin(items []namedThing) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if name := cleanText(item.Name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "|" + strings.Join(names, "|") + "|"
}

// marshalDocument renders the document deterministically, so re-converting
// unchanged data is byte-for-byte identical.
func marshalDocument(doc *articlesDoc) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal corpus document: %w", err)
	}

	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}
