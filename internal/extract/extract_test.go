package extract

import "testing"

func TestText_PassthroughPlainText(t *testing.T) {
	in := "OFXHEADER:100\nDATA:OFXSGML"
	got, err := Text([]byte(in))
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if got != in {
		t.Errorf("Text() = %q; want passthrough", got)
	}
}

func TestText_EmptyInput(t *testing.T) {
	if _, err := Text(nil); err == nil {
		t.Error("Text(nil) expected error")
	}
	if _, err := Text([]byte{}); err == nil {
		t.Error("Text(empty) expected error")
	}
}

func TestText_MalformedPDF(t *testing.T) {
	_, err := Text([]byte("%PDF-1.7 truncated garbage"))
	if err == nil {
		t.Error("Text() expected error for malformed pdf")
	}
}
