package nonstop_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"

	. "github.com/raykov/nonstop"
)

const linkedSVG = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 24 24">
  <defs>
    <linearGradient id="g1">
      <stop offset="0" stop-color="#ff0000"/>
      <stop offset="1" stop-color="#0000ff"/>
    </linearGradient>
    <linearGradient id="g2" xlink:href="#g1" x1="0" y1="0" x2="24" y2="24"/>
  </defs>
  <rect width="24" height="24" fill="url(#g2)"/>
</svg>`

const nestedGroupSVG = `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">
  <defs/>
  <g id="layer1">
    <g id="layer2">
      <path d="M0 0h10v10z"/>
      <g id="layer3">
        <radialGradient id="rg1">
          <stop offset="0" stop-color="white"/>
          <stop offset="1" stop-color="black"/>
        </radialGradient>
      </g>
    </g>
  </g>
</svg>`

func readDoc(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := ReadDocument(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func serialize(t *testing.T, doc *Document) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

// byID finds the element with the given id anywhere under n.
func byID(n Node, id string) *Element {
	if v, ok := n.Attr("id"); ok && v == id {
		return n.(*Element)
	}
	for _, c := range n.Children() {
		if e := byID(c, id); e != nil {
			return e
		}
	}
	return nil
}

func stopsOf(n Node) []*Element {
	var stops []*Element
	for _, c := range n.Children() {
		if c.Tag() == "stop" {
			stops = append(stops, c.(*Element))
		}
	}
	return stops
}

func stopAttrs(n Node) [][]Attr {
	var attrs [][]Attr
	for _, s := range stopsOf(n) {
		attrs = append(attrs, s.Attrs)
	}
	return attrs
}

func process(t *testing.T, doc *Document, opts Options) bool {
	t.Helper()
	changed, err := NewProcessor(funcr.New(func(prefix, args string) { t.Log(args) }, funcr.Options{Verbosity: 1}), opts).
		Process(doc.Root.Children())
	if err != nil {
		t.Fatal(err)
	}
	return changed
}

func TestProcessLinkedGradient(t *testing.T) {
	doc := readDoc(t, linkedSVG)
	g1 := byID(doc.Root, "g1")
	before := serialize(t, &Document{Root: g1})

	if !process(t, doc, Options{}) {
		t.Fatal("expected changes")
	}

	g2 := byID(doc.Root, "g2")
	if diff := cmp.Diff(stopAttrs(g1), stopAttrs(g2)); diff != "" {
		t.Errorf("injected stops mismatch (-want +got):\n%s", diff)
	}
	src, dst := stopsOf(g1), stopsOf(g2)
	for i := range dst {
		if src[i] == dst[i] {
			t.Errorf("stop %d was moved, not copied", i)
		}
	}
	if after := serialize(t, &Document{Root: g1}); after != before {
		t.Errorf("source gradient changed:\n%s\nwant\n%s", after, before)
	}
	if v, _ := g2.Attr("xlink:href"); v != "#g1" {
		t.Errorf("link attribute = %q, want it kept", v)
	}
}

func TestProcessKeepsStopOrder(t *testing.T) {
	doc := readDoc(t, `<svg><defs>
<linearGradient id="a"><stop offset="0"/><stop offset=".3"/><stop offset="1"/></linearGradient>
<radialGradient id="b" xlink:href="#a"><title>kept</title></radialGradient>
</defs></svg>`)
	process(t, doc, Options{})

	b := byID(doc.Root, "b")
	var got []string
	for _, c := range b.Children() {
		if off, ok := c.Attr("offset"); ok {
			got = append(got, off)
		} else {
			got = append(got, c.Tag())
		}
	}
	want := []string{"title", "0", ".3", "1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("children of linking gradient (-want +got):\n%s", diff)
	}
}

func TestProcessFanOut(t *testing.T) {
	doc := readDoc(t, `<svg><defs>
<linearGradient id="a"><stop offset="0" stop-color="red"/><stop offset="1" stop-color="blue"/></linearGradient>
<linearGradient id="b" xlink:href="#a"/>
<linearGradient id="c" xlink:href="#a"/>
</defs></svg>`)
	process(t, doc, Options{})

	b, c := byID(doc.Root, "b"), byID(doc.Root, "c")
	if len(stopsOf(b)) != 2 || len(stopsOf(c)) != 2 {
		t.Fatalf("got %d and %d stops, want 2 each", len(stopsOf(b)), len(stopsOf(c)))
	}
	stopsOf(b)[0].SetAttr("stop-color", "green")
	if v, _ := stopsOf(c)[0].Attr("stop-color"); v != "red" {
		t.Errorf("second linking gradient shares stops: stop-color = %q", v)
	}
	if v, _ := stopsOf(byID(doc.Root, "a"))[0].Attr("stop-color"); v != "red" {
		t.Errorf("source stop changed: stop-color = %q", v)
	}
}

func TestProcessUnmatchedReference(t *testing.T) {
	doc := readDoc(t, `<svg><defs>
<linearGradient id="a"><stop offset="0"/></linearGradient>
<linearGradient id="b" xlink:href="#missing"/>
</defs></svg>`)
	if !process(t, doc, Options{}) {
		t.Error("expected a change to be reported")
	}
	if n := len(byID(doc.Root, "b").Children()); n != 0 {
		t.Errorf("unmatched link got %d children", n)
	}
}

func TestProcessFallbackOnlyWhenNeeded(t *testing.T) {
	doc := readDoc(t, `<svg><defs>
<linearGradient id="a"><stop offset="0"/></linearGradient>
<linearGradient id="b" xlink:href="#grouped"/>
</defs>
<g><linearGradient id="grouped"><stop offset="0"/><stop offset="1"/></linearGradient></g>
</svg>`)
	process(t, doc, Options{})
	if n := len(byID(doc.Root, "b").Children()); n != 0 {
		t.Errorf("group was searched although defs had stops: %d children", n)
	}
}

func TestProcessFallbackNestedGroups(t *testing.T) {
	doc := readDoc(t, nestedGroupSVG)
	before := serialize(t, doc)
	if !process(t, doc, Options{}) {
		t.Error("stops found in groups should report a change")
	}
	if after := serialize(t, doc); after != before {
		t.Errorf("document changed without links:\n%s", after)
	}
}

func TestProcessFallbackResolvesLinks(t *testing.T) {
	src := strings.Replace(nestedGroupSVG, "<defs/>",
		`<defs><radialGradient id="rg2" xlink:href="#rg1" r="5"/><text>x</text></defs>`, 1)
	doc := readDoc(t, src)
	process(t, doc, Options{})
	if diff := cmp.Diff(stopAttrs(byID(doc.Root, "rg1")), stopAttrs(byID(doc.Root, "rg2"))); diff != "" {
		t.Errorf("stops from group (-want +got):\n%s", diff)
	}
}

func TestProcessMissingID(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"defs", `<svg><defs><linearGradient><stop offset="0"/></linearGradient></defs></svg>`},
		{"group", `<svg><defs/><g><g><radialGradient><stop offset="0"/></radialGradient></g></g></svg>`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := readDoc(t, test.src)
			changed, err := Process(doc.Root.Children())
			if changed {
				t.Error("reported a change")
			}
			if !errors.Is(err, ErrMissingID) {
				t.Fatalf("err = %v, want ErrMissingID", err)
			}
			var pe *PreconditionError
			if !errors.As(err, &pe) || pe.Tag == "" {
				t.Errorf("err = %#v, want a *PreconditionError naming the tag", err)
			}
		})
	}
}

func TestProcessEmptyGradientWithoutID(t *testing.T) {
	doc := readDoc(t, `<svg><defs>
<linearGradient/>
<linearGradient id="a"><stop offset="0"/></linearGradient>
</defs></svg>`)
	if _, err := Process(doc.Root.Children()); err != nil {
		t.Errorf("gradient without stops needs no id: %v", err)
	}
}

func TestProcessSkipsNonElements(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"defs", `<svg><defs>
<!-- c -->
<?pi x?>
<linearGradient id="g1"><!-- first --><stop offset="0"/><stop offset="1"/></linearGradient>
<!-- <linearGradient xlink:href="#g1"/> -->
<linearGradient id="g2" xlink:href="#g1"/>
</defs></svg>`},
		{"groups", `<svg><defs><!-- c --><linearGradient id="g2" xlink:href="#g1"/></defs>
<g><!-- c --><?pi x?><g><linearGradient id="g1"><stop offset="0"/><stop offset="1"/></linearGradient></g></g>
</svg>`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := readDoc(t, test.src)
			if !process(t, doc, Options{}) {
				t.Fatal("expected changes")
			}
			if n := len(stopsOf(byID(doc.Root, "g2"))); n != 2 {
				t.Errorf("g2 has %d stops, want 2", n)
			}
			if n := len(stopsOf(byID(doc.Root, "g1"))); n != 2 {
				t.Errorf("g1 has %d stops, want 2", n)
			}
		})
	}
}

func TestProcessNothingToDo(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no containers", `<svg><rect width="1" height="1"/></svg>`},
		{"group only", `<svg><g><rect/></g></svg>`},
		{"links without group", `<svg><defs><linearGradient id="b" xlink:href="#a"/></defs></svg>`},
		{"empty group", `<svg><defs/><g><g><rect/></g></g></svg>`},
		{"gradients without stops", `<svg><defs><linearGradient id="a"/></defs><g/></svg>`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := readDoc(t, test.src)
			if process(t, doc, Options{}) {
				t.Error("reported a change")
			}
			if got := serialize(t, doc); got != test.src {
				t.Errorf("document changed:\n%s", got)
			}
		})
	}
}

func TestProcessLinkTakesPrecedence(t *testing.T) {
	doc := readDoc(t, `<svg><defs>
<linearGradient id="a" xlink:href="#b"><stop offset="0"/></linearGradient>
<linearGradient id="b"><stop offset="1"/></linearGradient>
</defs></svg>`)
	process(t, doc, Options{})
	got := stopAttrs(byID(doc.Root, "a"))
	want := [][]Attr{{{Name: "offset", Value: "0"}}, {{Name: "offset", Value: "1"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stops (-want +got):\n%s", diff)
	}
}

// Any element in defs with a link counts by default; the stricter reading
// only lets gradients link.
func TestProcessLinkRecognition(t *testing.T) {
	const src = `<svg><defs>
<linearGradient id="a"><stop offset="0"/></linearGradient>
<pattern id="p" xlink:href="#a"/>
<linearGradient id="b" xlink:href="#a"/>
</defs></svg>`
	tests := []struct {
		name        string
		opts        Options
		patternStop int
	}{
		{"any element", Options{}, 1},
		{"gradients only", Options{GradientLinksOnly: true}, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			doc := readDoc(t, src)
			process(t, doc, test.opts)
			if n := len(stopsOf(byID(doc.Root, "p"))); n != test.patternStop {
				t.Errorf("pattern got %d stops, want %d", n, test.patternStop)
			}
			if n := len(stopsOf(byID(doc.Root, "b"))); n != 1 {
				t.Errorf("gradient got %d stops, want 1", n)
			}
		})
	}
}

func TestProcessLinkAttr(t *testing.T) {
	doc := readDoc(t, `<svg><defs>
<linearGradient id="a"><stop offset="0"/></linearGradient>
<linearGradient id="b" href="#a"/>
<linearGradient id="c" xlink:href="#a"/>
</defs></svg>`)
	process(t, doc, Options{LinkAttr: "href"})
	if n := len(stopsOf(byID(doc.Root, "b"))); n != 1 {
		t.Errorf("href link got %d stops, want 1", n)
	}
	if n := len(stopsOf(byID(doc.Root, "c"))); n != 0 {
		t.Errorf("xlink:href link got %d stops, want 0", n)
	}
}

// The links stay in place, so a second run copies the stops again.
func TestProcessTwice(t *testing.T) {
	doc := readDoc(t, linkedSVG)
	process(t, doc, Options{})
	process(t, doc, Options{})
	if n := len(stopsOf(byID(doc.Root, "g2"))); n != 4 {
		t.Errorf("got %d stops after two runs, want 4", n)
	}
}

func TestProcessVerboseLog(t *testing.T) {
	tests := []struct {
		verbosity int
		want      bool
	}{
		{0, false},
		{1, true},
	}
	for _, test := range tests {
		var lines []string
		log := funcr.New(func(prefix, args string) { lines = append(lines, args) },
			funcr.Options{Verbosity: test.verbosity})
		doc := readDoc(t, linkedSVG)
		if _, err := NewProcessor(log, Options{}).Process(doc.Root.Children()); err != nil {
			t.Fatal(err)
		}
		all := strings.Join(lines, "\n")
		if got := strings.Contains(all, `"Found linked gradient" "id"="g1"`); got != test.want {
			t.Errorf("verbosity %d: linked gradient logged = %v\n%s", test.verbosity, got, all)
		}
		if !strings.Contains(all, "Inserting stops into target gradients.") {
			t.Errorf("verbosity %d: progress not logged\n%s", test.verbosity, all)
		}
	}
}

func TestProcessZeroProcessor(t *testing.T) {
	doc := readDoc(t, linkedSVG)
	var p Processor
	changed, err := p.Process(doc.Root.Children())
	if err != nil || !changed {
		t.Errorf("Process = %v, %v", changed, err)
	}
}
