package sources

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html/charset"

	"github.com/RobinCoderZhao/newsagent/pkg/htmltext"
)

// ErrUnsupportedFeed is returned for bodies that are neither RSS/RDF nor Atom.
var ErrUnsupportedFeed = errors.New("unsupported feed format")

// candidate is a feed item mapped onto the fields the filters look at.
type candidate struct {
	Title       string
	Link        string
	Description string
	Content     string
	Published   string
}

// feedItem is one item of either dialect.
type feedItem interface {
	normalize() candidate
}

// parsedFeed is a feed body reduced to its title and items.
type parsedFeed struct {
	Title string
	Items []feedItem
}

// xmlLink covers <link>url</link> and <link href="url" rel="..."/>.
type xmlLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Text string `xml:",chardata"`
}

// resolveLink prefers element text, then an alternate (or rel-less) href, then any href.
func resolveLink(links []xmlLink) string {
	for _, l := range links {
		if t := strings.TrimSpace(l.Text); t != "" {
			return t
		}
	}
	for _, l := range links {
		if l.Href != "" && (l.Rel == "" || l.Rel == "alternate") {
			return strings.TrimSpace(l.Href)
		}
	}
	for _, l := range links {
		if l.Href != "" {
			return strings.TrimSpace(l.Href)
		}
	}
	return ""
}

// RSS 2.0 and RSS 1.0 (RDF). RDF items sit next to the channel instead of inside it.
type rssDocument struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string    `xml:"title"`
	Links       []xmlLink `xml:"link"`
	Description string    `xml:"description"`
	Content     string    `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
	PubDate     string    `xml:"pubDate"`
	DCDate      string    `xml:"http://purl.org/dc/elements/1.1/ date"`
}

func (i rssItem) normalize() candidate {
	published := i.PubDate
	if strings.TrimSpace(published) == "" {
		published = i.DCDate
	}
	return candidate{
		Title:       strings.TrimSpace(i.Title),
		Link:        resolveLink(i.Links),
		Description: i.Description,
		Content:     i.Content,
		Published:   strings.TrimSpace(published),
	}
}

// Atom types
type atomDocument struct {
	Title   atomText    `xml:"title"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     atomText  `xml:"title"`
	Links     []xmlLink `xml:"link"`
	Summary   atomText  `xml:"summary"`
	Content   atomText  `xml:"content"`
	Published string    `xml:"published"`
	Updated   string    `xml:"updated"`
}

// atomText is an Atom text construct. xhtml content arrives as child
// elements rather than character data.
type atomText struct {
	Type  string `xml:"type,attr"`
	Text  string `xml:",chardata"`
	Inner string `xml:",innerxml"`
}

func (t atomText) String() string {
	if t.Type == "xhtml" || (strings.TrimSpace(t.Text) == "" && strings.Contains(t.Inner, "<")) {
		return htmltext.Extract(t.Inner)
	}
	return t.Text
}

func (e atomEntry) normalize() candidate {
	published := e.Published
	if strings.TrimSpace(published) == "" {
		published = e.Updated
	}
	return candidate{
		Title:       strings.TrimSpace(e.Title.String()),
		Link:        resolveLink(e.Links),
		Description: e.Summary.String(),
		Content:     e.Content.String(),
		Published:   strings.TrimSpace(published),
	}
}

// parseFeed detects the dialect of body and decodes it.
func parseFeed(body []byte) (parsedFeed, error) {
	switch gofeed.DetectFeedType(bytes.NewReader(body)) {
	case gofeed.FeedTypeRSS:
		var doc rssDocument
		if err := decodeXML(body, &doc); err != nil {
			return parsedFeed{}, fmt.Errorf("decode rss: %w", err)
		}
		items := make([]feedItem, 0, len(doc.Channel.Items)+len(doc.Items))
		for _, it := range doc.Channel.Items {
			items = append(items, it)
		}
		for _, it := range doc.Items {
			items = append(items, it)
		}
		return parsedFeed{Title: strings.TrimSpace(doc.Channel.Title), Items: items}, nil

	case gofeed.FeedTypeAtom:
		var doc atomDocument
		if err := decodeXML(body, &doc); err != nil {
			return parsedFeed{}, fmt.Errorf("decode atom: %w", err)
		}
		items := make([]feedItem, 0, len(doc.Entries))
		for _, e := range doc.Entries {
			items = append(items, e)
		}
		return parsedFeed{Title: strings.TrimSpace(doc.Title.String()), Items: items}, nil

	default:
		return parsedFeed{}, ErrUnsupportedFeed
	}
}

func decodeXML(body []byte, v any) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity
	return dec.Decode(v)
}
