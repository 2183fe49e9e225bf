package feed

import (
	"strings"
)

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
)

// transformState is owned by a single Run call. While insideItem is set all
// output goes to itemBuf; otherwise it goes to result.
type transformState struct {
	opts    *Options
	limit   int
	selfURL string

	stack []string

	insideItem      bool
	itemDepth       int
	itemCount       int
	skipCurrentItem bool
	itemBuf         strings.Builder

	result strings.Builder

	itemsKept         int
	selfLinkRewritten bool
}

func newTransformState(opts *Options, limit int, selfURL string, sizeHint int) *transformState {
	s := &transformState{
		opts:    opts,
		limit:   limit,
		selfURL: selfURL,
	}
	s.result.Grow(sizeHint)
	return s
}

func (s *transformState) apply(ev Event) error {
	if ev.Kind != OpenTag && ev.Kind != CloseTag && s.skipping() {
		return nil
	}

	switch ev.Kind {
	case OpenTag:
		s.openTag(ev)
		return nil
	case CloseTag:
		return s.closeTag(ev)
	case Text:
		if !s.opts.KeepWhitespace && isIgnorableWhitespace(ev.Data) {
			return nil
		}
		textEscaper.WriteString(s.out(), ev.Data)
	case CData:
		writeCDATA(s.out(), ev.Data)
	case Comment:
		w := s.out()
		w.WriteString("<!--")
		w.WriteString(ev.Data)
		w.WriteString("-->")
		s.prologBreak()
	case ProcInst:
		w := s.out()
		w.WriteString("<?")
		w.WriteString(ev.Name)
		if ev.Data != "" {
			w.WriteByte(' ')
			w.WriteString(ev.Data)
		}
		w.WriteString("?>")
		s.prologBreak()
	default:
		return internal("unknown event kind %d", ev.Kind)
	}
	return nil
}

func (s *transformState) openTag(ev Event) {
	s.stack = append(s.stack, ev.Name)

	if !s.insideItem && s.isItem(ev.Name) {
		s.insideItem = true
		s.itemDepth = len(s.stack)
		s.itemCount++
		s.skipCurrentItem = s.itemCount > s.limit
		s.itemBuf.Reset()
		if !s.skipCurrentItem {
			writeOpenTag(&s.itemBuf, ev.Name, ev.Attrs)
		}
		return
	}

	if s.insideItem {
		if !s.skipCurrentItem {
			writeOpenTag(&s.itemBuf, ev.Name, ev.Attrs)
		}
		return
	}

	writeOpenTag(&s.result, ev.Name, s.rewriteSelfLink(ev.Name, ev.Attrs))
}

func (s *transformState) closeTag(ev Event) error {
	if len(s.stack) == 0 {
		return internal("close tag </%s> with no open element", ev.Name)
	}
	open := s.stack[len(s.stack)-1]
	if open != ev.Name {
		return internal("close tag </%s> does not match <%s>", ev.Name, open)
	}
	depth := len(s.stack)
	s.stack = s.stack[:depth-1]

	if s.insideItem && depth == s.itemDepth {
		s.insideItem = false
		if !s.skipCurrentItem {
			writeCloseTag(&s.itemBuf, ev.Name)
			s.result.WriteString(s.itemBuf.String())
			s.itemsKept++
		}
		s.itemBuf.Reset()
		s.skipCurrentItem = false
		return nil
	}

	if s.skipping() {
		return nil
	}
	writeCloseTag(s.out(), ev.Name)
	return nil
}

func (s *transformState) finish() (string, error) {
	if s.insideItem {
		return "", internal("document ended inside item %d", s.itemCount)
	}
	if len(s.stack) > 0 {
		return "", internal("document ended with <%s> open", s.stack[len(s.stack)-1])
	}
	return s.result.String(), nil
}

func (s *transformState) stats() Stats {
	return Stats{
		ItemsSeen:         s.itemCount,
		ItemsKept:         s.itemsKept,
		SelfLinkRewritten: s.selfLinkRewritten,
	}
}

func (s *transformState) skipping() bool {
	return s.insideItem && s.skipCurrentItem
}

func (s *transformState) out() *strings.Builder {
	if s.insideItem {
		return &s.itemBuf
	}
	return &s.result
}

// Comments and processing instructions before or after the root element
// are put on their own line.
func (s *transformState) prologBreak() {
	if len(s.stack) == 0 {
		s.result.WriteByte('\n')
	}
}

func (s *transformState) isItem(name string) bool {
	for _, item := range s.opts.ItemElements {
		if strings.EqualFold(name, item) {
			return true
		}
	}
	return false
}

func (s *transformState) rewriteSelfLink(name string, attrs []Attr) []Attr {
	if s.selfURL == "" || s.selfLinkRewritten || !strings.EqualFold(localName(name), "link") {
		return attrs
	}

	href := -1
	self := false
	for i, a := range attrs {
		switch {
		case strings.EqualFold(a.Name, "href"):
			href = i
		case strings.EqualFold(a.Name, "rel"):
			self = hasToken(a.Value, "self")
		}
	}
	if href < 0 || !self {
		return attrs
	}

	rewritten := make([]Attr, len(attrs))
	copy(rewritten, attrs)
	rewritten[href].Value = s.selfURL
	s.selfLinkRewritten = true
	return rewritten
}

func hasToken(value, token string) bool {
	for _, f := range strings.Fields(value) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

func isIgnorableWhitespace(text string) bool {
	return strings.TrimSpace(text) == "" && strings.ContainsRune(text, '\n')
}

func writeOpenTag(w *strings.Builder, name string, attrs []Attr) {
	w.WriteByte('<')
	w.WriteString(name)
	for _, a := range attrs {
		w.WriteByte(' ')
		w.WriteString(a.Name)
		w.WriteString(`="`)
		attrEscaper.WriteString(w, a.Value)
		w.WriteByte('"')
	}
	w.WriteByte('>')
}

func writeCloseTag(w *strings.Builder, name string) {
	w.WriteString("</")
	w.WriteString(name)
	w.WriteByte('>')
}

func writeCDATA(w *strings.Builder, data string) {
	w.WriteString("<![CDATA[")
	w.WriteString(strings.ReplaceAll(data, "]]>", "]]]]><![CDATA[>"))
	w.WriteString("]]>")
}
