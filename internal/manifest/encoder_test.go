package manifest

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeReferenceLine(t *testing.T) {
	got, err := Encoder{}.Encode("/a/b/page01.png", "hello")
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	want := "/a/b/page01.png;|h|e|l|l|o\n"
	if got != want {
		t.Fatalf("unexpected line: got %q want %q", got, want)
	}
}

func TestEncodeEmptyTranscription(t *testing.T) {
	got, err := Encoder{}.Encode("/a/blank.png", "")
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if got != "/a/blank.png;|\n" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestEncodeScalarSplitsCombiningMarks(t *testing.T) {
	got, err := Encoder{Mode: CharModeScalar}.Encode("x.png", "e\u0301a")
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if got != "x.png;|e|\u0301|a\n" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestEncodeGraphemeKeepsClusters(t *testing.T) {
	line, tokens, err := Encoder{Mode: CharModeGrapheme}.EncodeTokens("x.png", "e\u0301a")
	if err != nil {
		t.Fatalf("EncodeTokens returned error: %v", err)
	}
	if line != "x.png;|e\u0301|a\n" {
		t.Fatalf("unexpected line: %q", line)
	}
	if len(tokens) != 2 || tokens[0] != "e\u0301" {
		t.Fatalf("unexpected tokens: %q", tokens)
	}
}

func TestEncodeEscapePolicies(t *testing.T) {
	cases := []struct {
		name    string
		policy  EscapePolicy
		content string
		want    string
		wantErr bool
	}{
		{name: "reject pipe", policy: EscapeReject, content: "a|b", wantErr: true},
		{name: "reject semicolon", policy: EscapeReject, content: "a;b", wantErr: true},
		{name: "zero value rejects", policy: "", content: "a|b", wantErr: true},
		{name: "escape", policy: EscapeBackslash, content: `a|;\`, want: `p.png;|a|\||\;|\\` + "\n"},
		{name: "allow unsafe", policy: EscapeAllowUnsafe, content: "a|b", want: "p.png;|a|||b\n"},
		{name: "clean under reject", policy: EscapeReject, content: "ab", want: "p.png;|a|b\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encoder{Escape: tc.policy}.Encode("p.png", tc.content)
			if tc.wantErr {
				if !errors.Is(err, ErrDelimiterCollision) {
					t.Fatalf("expected ErrDelimiterCollision, got %v (%q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Encode returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("unexpected line: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestEncodeRejectsSeparatorInPath(t *testing.T) {
	_, err := Encoder{}.Encode("/a;b/page.png", "x")
	if !errors.Is(err, ErrDelimiterCollision) {
		t.Fatalf("expected ErrDelimiterCollision, got %v", err)
	}
	line, err := Encoder{Escape: EscapeBackslash}.Encode("/a;b/page.png", "x")
	if err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if !strings.HasPrefix(line, `/a\;b/page.png;|`) {
		t.Fatalf("unexpected escaped path: %q", line)
	}
}

func TestEncodeRejectsInteriorNewline(t *testing.T) {
	if _, err := (Encoder{}).Encode("p.png", "a\nb"); !errors.Is(err, ErrDelimiterCollision) {
		t.Fatalf("expected ErrDelimiterCollision, got %v", err)
	}
}
