package main

import (
	"bytes"
	"testing"
	"time"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var b bytes.Buffer
	old := stdout
	stdout = &b
	t.Cleanup(func() { stdout = old })
	return &b
}

func TestPrintableName(t *testing.T) {
	for in, want := range map[string]string{
		"user.plain":    "user.plain",
		"user.ünicode":  "user.ünicode",
		"user.tab\there": `"user.tab\there"`,
		"user.\xff":     `"user.\xff"`,
		"user.nul\x00":  `"user.nul\x00"`,
	} {
		if got := printableName(in); got != want {
			t.Errorf("printableName(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestHumanPrintNames(t *testing.T) {
	out := captureStdout(t)
	o := &HumanOutput{}
	config.nullSep = false
	o.printNames([]string{"user.a", "user.\x01"})
	if got, want := out.String(), "user.a\n\"user.\\x01\"\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	out.Reset()
	config.nullSep = true
	defer func() { config.nullSep = false }()
	o.printNames([]string{"user.a", "user.\x01"})
	if got, want := out.String(), "user.a\x00user.\x01\x00"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHumanPrintValue(t *testing.T) {
	out := captureStdout(t)
	o := &HumanOutput{}
	defer func() { config.encoding = EncodingRaw }()
	for encoding, want := range map[string]string{
		EncodingRaw:    "\x00hi",
		EncodingHex:    "006869\n",
		EncodingBase64: "AGhp\n",
	} {
		out.Reset()
		config.encoding = encoding
		if err := o.printValue([]byte("\x00hi")); err != nil {
			t.Fatal(err)
		}
		if out.String() != want {
			t.Errorf("%s: got %q, want %q", encoding, out.String(), want)
		}
	}
	config.encoding = "rot13"
	if err := o.printValue(nil); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestJSONOutput(t *testing.T) {
	out := captureStdout(t)
	o := &JSONOutput{}
	o.printNames([]string{"user.a", "user.\xff"})
	o.printValue([]byte{0, 1})
	o.printPresence(false)
	o.printHealth(true, true)
	want := `{"names":["dXNlci5h","dXNlci7/"]}
{"value":"AAE="}
{"present":false}
{"native":true,"supported":true}
`
	if out.String() != want {
		t.Errorf("got\n%s\nwant\n%s", out.String(), want)
	}
}

func TestTimesList(t *testing.T) {
	got := TimesList([]time.Duration{1500 * time.Nanosecond, time.Millisecond, 2*time.Second + 1})
	if want := "2s 1ms 2µs"; got != want {
		t.Errorf("TimesList = %q, want %q", got, want)
	}
}
