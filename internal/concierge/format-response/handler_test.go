// internal/concierge/format-response/handler_test.go
package formatresponse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeparateRecommendations(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "single marker",
			in:   "recommendation #1 やきとり祐天",
			want: "<br><br><hr>recommendation #1<br><br> やきとり祐天",
		},
		{
			name: "case insensitive and spacing kept",
			in:   "Recommendation  #2",
			want: "<br><br><hr>Recommendation  #2<br><br>",
		},
		{
			name: "no marker",
			in:   "おすすめはこちら",
			want: "おすすめはこちら",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeparateRecommendations(tt.in))
		})
	}
}

func TestConvertNewlines(t *testing.T) {
	assert.Equal(t, "a<br>b<br>c", ConvertNewlines("a\nb\r\nc"))
	assert.Equal(t, "plain", ConvertNewlines("plain"))
}

func TestConvertLinks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "replaces label",
			in:   "[Instagram](https://instagram.com/yakitori)",
			want: `<a href="https://instagram.com/yakitori" target="_blank" rel="noopener noreferrer">詳しくはこちら</a>`,
		},
		{
			name: "escapes url",
			in:   `[map](https://maps.example.com/?q=a&b="c")`,
			want: `<a href="https://maps.example.com/?q=a&amp;b=&#34;c&#34;" target="_blank" rel="noopener noreferrer">詳しくはこちら</a>`,
		},
		{
			name: "balanced parentheses kept in url",
			in:   "[map](https://en.wikipedia.org/wiki/Yutenji_(Tokyo)) です",
			want: `<a href="https://en.wikipedia.org/wiki/Yutenji_(Tokyo)" target="_blank" rel="noopener noreferrer">詳しくはこちら</a> です`,
		},
		{
			name: "javascript scheme reduced to text",
			in:   "[x](javascript:alert`1`)",
			want: "x",
		},
		{
			name: "data scheme reduced to escaped text",
			in:   "[<b>here</b>](data:text/html,hi)",
			want: "&lt;b&gt;here&lt;/b&gt;",
		},
		{
			name: "uppercase https accepted",
			in:   "[site](HTTPS://example.com/a)",
			want: `<a href="HTTPS://example.com/a" target="_blank" rel="noopener noreferrer">詳しくはこちら</a>`,
		},
		{
			name: "scheme-relative url rejected",
			in:   "[site](//example.com)",
			want: "site",
		},
		{
			name: "brackets without url untouched",
			in:   "[注意] 予約推奨",
			want: "[注意] 予約推奨",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertLinks(tt.in, "詳しくはこちら"))
		})
	}
}

func TestFormat_MultiCandidateFixture(t *testing.T) {
	raw := "recommendation #1\nレストラン名：やきとり祐天\nInstagram：[Instagram](https://instagram.com/a)\n" +
		"recommendation #2\nレストラン名：Trattoria Yu\nGoogleマップ：[Googleマップ](https://maps.google.com/?q=b)"

	out := New("詳しくはこちら").Format(raw)

	assert.NotContains(t, out, "\n")
	assert.Equal(t, 2, strings.Count(out, `target="_blank"`))
	assert.NotContains(t, out, "](")
	assert.Contains(t, out, "<hr>recommendation #1")
	assert.Contains(t, out, "<hr>recommendation #2")
	assert.True(t, strings.HasPrefix(out, "<br><br><hr>recommendation #1<br><br><br>"))
}

func TestMarker(t *testing.T) {
	assert.Equal(t, "recommendation #3", Marker(3))
	assert.Equal(t, Marker(1)+"<br><br>", strings.TrimPrefix(SeparateRecommendations(Marker(1)), "<br><br><hr>"))
}
