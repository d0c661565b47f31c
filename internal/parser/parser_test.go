package parser

import (
	"testing"

	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/atikulmunna/logpage/internal/model"
	"github.com/google/go-cmp/cmp"
)

func TestParseEntries(t *testing.T) {
	fragment := excerpt.Render(`<html><body>
<ul>
  <li><a href="ChangeLog?rev=1.2">ChangeLog</a>   fixed   build</li>
  <li>plugins/git: <b>new</b> command</li>
</ul>
</body></html>`)

	got, err := ParseEntries(fragment)
	if err != nil {
		t.Fatal(err)
	}

	want := []model.Entry{
		{Text: "ChangeLog fixed build", Href: "ChangeLog?rev=1.2"},
		{Text: "plugins/git: new command"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEntriesIgnoresAttribution(t *testing.T) {
	got, err := ParseEntries(excerpt.Render(""))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no entries, got %+v", got)
	}
}

func TestParseEntriesNested(t *testing.T) {
	got, err := ParseEntries(`<ul><li>outer<ul><li>inner</li></ul></li></ul>`)
	if err != nil {
		t.Fatal(err)
	}

	want := []model.Entry{{Text: "outer"}, {Text: "inner"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEntriesMalformed(t *testing.T) {
	// Unclosed items are closed implicitly by the HTML5 parser.
	got, err := ParseEntries(`<ul><li>a<li>b</ul>`)
	if err != nil {
		t.Fatal(err)
	}

	want := []model.Entry{{Text: "a"}, {Text: "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEntriesInlineMarkup(t *testing.T) {
	got, err := ParseEntries(`<ul><li><b>anjuta</b>: fixed <a href="#1">bug</a>.</li><li>line one<br>line two</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}

	want := []model.Entry{
		{Text: "anjuta: fixed bug.", Href: "#1"},
		{Text: "line one line two"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}
