package fieldfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply_StripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "plain text untouched", in: "hello", want: "hello"},
		{name: "tags removed", in: "<b>hi</b>", want: "hi"},
		{name: "nested tags removed", in: "<div><p>a <i>b</i></p></div>", want: "a b"},
		{name: "entities decoded", in: "a &amp; b", want: "a & b"},
		{name: "script content dropped", in: `<script>alert("x")</script>ok`, want: "ok"},
		{name: "slice applied element-wise", in: []any{"<b>a</b>", "b"}, want: []any{"a", "b"}},
		{name: "non-string passes through", in: 42, want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Apply(StripHTML, tt.in))
		})
	}
}

func TestApply_NormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Apply(NormalizeWhitespace, "  a \t b\n c "))
}

func TestApply_UnknownFilterIsNoOp(t *testing.T) {
	assert.Equal(t, "<b>hi</b>", Apply("not_a_filter", "<b>hi</b>"))
}
