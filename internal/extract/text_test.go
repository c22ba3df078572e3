package extract

import "testing"

func TestStripHTML(t *testing.T) {
	cases := map[string]string{
		"plain text":                               "plain text",
		"<p>Hello <b>world</b></p>":                "Hello world",
		"a &amp; b":                                "a & b",
		"<script>var x = 1;</script>visible":       "visible",
		"<div><style>p{}</style><i>kept</i></div>": "kept",
	}
	for in, want := range cases {
		if got := StripHTML(in); got != want {
			t.Errorf("StripHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripNonASCII(t *testing.T) {
	if got := StripNonASCII("café “quoted”"); got != "caf quoted" {
		t.Errorf("got %q", got)
	}
}

func TestCleanExtract(t *testing.T) {
	cases := map[string]string{
		"":                                "None",
		"None":                            "None",
		"<p>“10,000” crossed</p>": "10,000 crossed",
		"<br/>—":                     "None",
		"  spaced\n\nout  ":               "spaced out",
	}
	for in, want := range cases {
		if got := CleanExtract(in); got != want {
			t.Errorf("CleanExtract(%q) = %q, want %q", in, got, want)
		}
	}
}
