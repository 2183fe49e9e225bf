package feed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openEv(name string, attrs ...Attr) Event {
	return Event{Kind: OpenTag, Name: name, Attrs: attrs}
}

func closeEv(name string) Event {
	return Event{Kind: CloseTag, Name: name}
}

func text(data string) Event {
	return Event{Kind: Text, Data: data}
}

func applyAll(t *testing.T, s *transformState, events ...Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, s.apply(ev))
	}
}

func TestStateRoutesItems(t *testing.T) {
	opts := DefaultOptions()
	s := newTransformState(&opts, 1, "", 0)

	applyAll(t, s,
		openEv("channel"),
		openEv("item"), text("one"),
	)
	assert.True(t, s.insideItem)
	assert.False(t, s.skipCurrentItem)
	assert.Equal(t, "<channel>", s.result.String(), "item output is buffered until close")
	assert.Equal(t, "<item>one", s.itemBuf.String())

	applyAll(t, s, closeEv("item"))
	assert.False(t, s.insideItem)
	assert.Empty(t, s.itemBuf.String())

	applyAll(t, s,
		openEv("item"), text("two"),
	)
	assert.True(t, s.skipCurrentItem)
	assert.Equal(t, 2, s.itemCount)
	assert.Empty(t, s.itemBuf.String())

	applyAll(t, s, closeEv("item"), closeEv("channel"))

	out, err := s.finish()
	require.NoError(t, err)
	assert.Equal(t, "<channel><item>one</item></channel>", out)
	assert.Equal(t, Stats{ItemsSeen: 2, ItemsKept: 1}, s.stats())
}

func TestStateLimitZero(t *testing.T) {
	opts := DefaultOptions()
	s := newTransformState(&opts, 0, "", 0)

	applyAll(t, s,
		openEv("channel"),
		openEv("item"), Event{Kind: CData, Data: "x"}, closeEv("item"),
		closeEv("channel"),
	)

	out, err := s.finish()
	require.NoError(t, err)
	assert.Equal(t, "<channel></channel>", out)
}

func TestStateInternalErrors(t *testing.T) {
	opts := DefaultOptions()

	t.Run("close with nothing open", func(t *testing.T) {
		s := newTransformState(&opts, 1, "", 0)
		requireTransformError(t, s.apply(closeEv("item")), TransformInternal)
	})

	t.Run("mismatched close", func(t *testing.T) {
		s := newTransformState(&opts, 1, "", 0)
		applyAll(t, s, openEv("channel"), openEv("item"))
		requireTransformError(t, s.apply(closeEv("channel")), TransformInternal)
	})

	t.Run("document ends inside item", func(t *testing.T) {
		s := newTransformState(&opts, 1, "", 0)
		applyAll(t, s, openEv("channel"), openEv("item"))
		_, err := s.finish()
		requireTransformError(t, err, TransformInternal)
	})

	t.Run("document ends with open element", func(t *testing.T) {
		s := newTransformState(&opts, 1, "", 0)
		applyAll(t, s, openEv("channel"))
		_, err := s.finish()
		requireTransformError(t, err, TransformInternal)
	})

	t.Run("unknown event kind", func(t *testing.T) {
		s := newTransformState(&opts, 1, "", 0)
		requireTransformError(t, s.apply(Event{Kind: EventKind(42)}), TransformInternal)
	})
}

func TestStateSelfLinkOnlyOutsideItems(t *testing.T) {
	opts := DefaultOptions()
	s := newTransformState(&opts, 5, "http://new/", 0)
	link := openEv("atom:link", Attr{Name: "href", Value: "http://old/"}, Attr{Name: "rel", Value: "self"})

	applyAll(t, s,
		openEv("channel"),
		openEv("item"), link, closeEv("atom:link"), closeEv("item"),
		link, closeEv("atom:link"),
		closeEv("channel"),
	)

	out, err := s.finish()
	require.NoError(t, err)
	assert.Equal(t, `<channel><item><atom:link href="http://old/" rel="self"></atom:link></item><atom:link href="http://new/" rel="self"></atom:link></channel>`, out)
	assert.True(t, s.selfLinkRewritten)
	assert.Equal(t, "http://old/", link.Attrs[0].Value, "source attributes are not mutated")
}

func TestEscapers(t *testing.T) {
	var b strings.Builder
	textEscaper.WriteString(&b, `a & b < c > d "e" 'f'`)
	assert.Equal(t, `a &amp; b &lt; c &gt; d "e" 'f'`, b.String())

	b.Reset()
	attrEscaper.WriteString(&b, `a & b < c > d "e" 'f'`)
	assert.Equal(t, `a &amp; b &lt; c &gt; d &quot;e&quot; &apos;f&apos;`, b.String())
}

func TestWriteCDATA(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<strong>x</strong>", "<![CDATA[<strong>x</strong>]]>"},
		{"", "<![CDATA[]]>"},
		{"a]]>b", "<![CDATA[a]]]]><![CDATA[>b]]>"},
	}

	for _, tt := range tests {
		var b strings.Builder
		writeCDATA(&b, tt.in)
		assert.Equal(t, tt.want, b.String())
	}
}

func TestIsIgnorableWhitespace(t *testing.T) {
	assert.True(t, isIgnorableWhitespace("\n"))
	assert.True(t, isIgnorableWhitespace("\n\t  \r\n"))
	assert.False(t, isIgnorableWhitespace("  "))
	assert.False(t, isIgnorableWhitespace(""))
	assert.False(t, isIgnorableWhitespace("\nx\n"))
}
