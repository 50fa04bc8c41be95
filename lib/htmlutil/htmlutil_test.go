package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		input  string
		expect string
	}{
		{input: "  Carrefour\n\tMarket ", expect: "Carrefour Market"},
		{input: "97.5% on 120 stores", expect: "97.5% on 120 stores"},
		{input: "a\u200bb\u00a0c", expect: "ab c"},
		{input: "", expect: ""},
	}
	for _, test := range cases {
		require.Equal(t, test.expect, CleanText(test.input), test.input)
	}
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<table><tr><td> 97% <br>on <b>120</b>
		stores</td></tr></table>`,
	))
	require.NoError(t, err)
	require.Equal(t, "97% on 120 stores", SelectionText(doc.Find("td")))
	require.Equal(t, "", SelectionText(doc.Find("th")))
}
