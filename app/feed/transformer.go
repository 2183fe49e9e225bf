package feed

import (
	"errors"
	"io"
)

type Options struct {
	// ItemElements lists the element names treated as items, compared
	// case-insensitively.
	ItemElements []string
	// LowercaseNames lower-cases element and attribute names on output.
	LowercaseNames bool
	// KeepWhitespace disables dropping of whitespace-only text that spans
	// lines.
	KeepWhitespace bool
}

func DefaultOptions() Options {
	return Options{
		ItemElements: []string{"item", "entry"},
	}
}

type Stats struct {
	ItemsSeen         int
	ItemsKept         int
	SelfLinkRewritten bool
}

// Transformer is safe for concurrent use; all per-document state lives in
// the Run call.
type Transformer struct {
	opts Options
}

func NewTransformer(opts Options) *Transformer {
	if len(opts.ItemElements) == 0 {
		opts.ItemElements = DefaultOptions().ItemElements
	}
	return &Transformer{opts: opts}
}

// Run keeps the first limit items of xmlText and returns the re-serialized
// document. When selfURL is non-empty it replaces the href of the first
// rel="self" link outside of any item.
func (t *Transformer) Run(xmlText string, limit int, selfURL string) (string, error) {
	out, _, err := t.RunWithStats(xmlText, limit, selfURL)
	return out, err
}

func (t *Transformer) RunWithStats(xmlText string, limit int, selfURL string) (string, Stats, error) {
	raw, err := prepareInput([]byte(xmlText))
	if err != nil {
		return "", Stats{}, err
	}

	reader := NewEventReader(raw, t.opts.LowercaseNames)
	state := newTransformState(&t.opts, limit, selfURL, len(raw))

	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", Stats{}, err
		}
		if err := state.apply(ev); err != nil {
			return "", Stats{}, err
		}
	}

	out, err := state.finish()
	if err != nil {
		return "", Stats{}, err
	}
	return out, state.stats(), nil
}
