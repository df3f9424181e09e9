package sanitize

import "testing"

func TestGeneratedTextStripsMarkupAndFences(t *testing.T) {
	in := "```\n<p>Hello <b>Dana</b></p>\n\n\n\nThanks\n```"
	got := GeneratedText(in)
	want := "Hello Dana\n\nThanks"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestEmailBodyDropsSubjectLine(t *testing.T) {
	got := EmailBody("Subject: Quick follow-up\n\nHi Dana,\nCan we meet?")
	want := "Hi Dana,\nCan we meet?"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestStripHTMLDecodesEncodedTags(t *testing.T) {
	if got := StripHTML("&lt;script&gt;alert(1)&lt;/script&gt;ok"); got != "alert(1)ok" {
		t.Fatalf("unexpected result %q", got)
	}
}
