package feed

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

type EventKind int

const (
	OpenTag EventKind = iota
	CloseTag
	Text
	CData
	Comment
	ProcInst
)

func (k EventKind) String() string {
	switch k {
	case OpenTag:
		return "open"
	case CloseTag:
		return "close"
	case Text:
		return "text"
	case CData:
		return "cdata"
	case Comment:
		return "comment"
	case ProcInst:
		return "procinst"
	default:
		return "unknown"
	}
}

// Attr is one attribute in source order. Value is the decoded value.
type Attr struct {
	Name  string
	Value string
}

// Event is a single parse event. Name is set for tags (and holds the target
// of a processing instruction); Data holds character content.
type Event struct {
	Kind  EventKind
	Name  string
	Attrs []Attr
	Data  string
}

var cdataPrefix = []byte("<![CDATA[")

// EventReader turns a document held in memory into a forward-only sequence
// of events. Element balance is checked here, so every CloseTag it returns
// matches the most recent unclosed OpenTag.
type EventReader struct {
	raw       []byte
	dec       *xml.Decoder
	stack     []string
	roots     int
	lowercase bool
}

func NewEventReader(raw []byte, lowercase bool) *EventReader {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity

	return &EventReader{
		raw:       raw,
		dec:       dec,
		lowercase: lowercase,
	}
}

// Next returns the next event, io.EOF after the root element has been
// closed and the input is exhausted, or a *TransformError.
func (r *EventReader) Next() (Event, error) {
	for {
		start := r.dec.InputOffset()

		tok, err := r.dec.RawToken()
		if err == io.EOF {
			return Event{}, r.finish()
		}
		if err != nil {
			return Event{}, malformed(err, "failed to read token")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return r.openTag(t)

		case xml.EndElement:
			return r.closeTag(t)

		case xml.CharData:
			end := r.dec.InputOffset()
			isCDATA := bytes.HasPrefix(r.raw[start:end], cdataPrefix)

			if len(r.stack) == 0 {
				if isCDATA || len(bytes.TrimSpace(t)) > 0 {
					return Event{}, malformed(nil, "character data outside of root element")
				}
				continue
			}

			if isCDATA {
				return Event{Kind: CData, Data: string(t)}, nil
			}
			return Event{Kind: Text, Data: string(t)}, nil

		case xml.Comment:
			return Event{Kind: Comment, Data: string(t)}, nil

		case xml.ProcInst:
			return Event{Kind: ProcInst, Name: t.Target, Data: string(t.Inst)}, nil

		case xml.Directive:
			// DOCTYPE and friends are not carried into the output.
			continue
		}
	}
}

func (r *EventReader) openTag(t xml.StartElement) (Event, error) {
	name := qualifiedName(t.Name)

	if len(r.stack) == 0 {
		r.roots++
		if r.roots > 1 {
			return Event{}, malformed(nil, "multiple root elements: <%s>", name)
		}
	}
	r.stack = append(r.stack, name)

	attrs := make([]Attr, 0, len(t.Attr))
	for _, a := range t.Attr {
		attrs = append(attrs, Attr{Name: r.display(qualifiedName(a.Name)), Value: a.Value})
	}

	return Event{Kind: OpenTag, Name: r.display(name), Attrs: attrs}, nil
}

func (r *EventReader) closeTag(t xml.EndElement) (Event, error) {
	name := qualifiedName(t.Name)

	if len(r.stack) == 0 {
		return Event{}, malformed(nil, "unexpected end element </%s>", name)
	}

	open := r.stack[len(r.stack)-1]
	if open != name {
		return Event{}, malformed(nil, "element <%s> closed by </%s>", open, name)
	}
	r.stack = r.stack[:len(r.stack)-1]

	return Event{Kind: CloseTag, Name: r.display(name)}, nil
}

func (r *EventReader) finish() error {
	if len(r.stack) > 0 {
		return malformed(io.ErrUnexpectedEOF, "element <%s> is not closed", r.stack[len(r.stack)-1])
	}
	if r.roots == 0 {
		return malformed(nil, "document has no root element")
	}
	return io.EOF
}

func (r *EventReader) display(name string) string {
	if r.lowercase {
		return strings.ToLower(name)
	}
	return name
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func localName(name string) string {
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}
