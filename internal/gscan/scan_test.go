package gscan

import "testing"

func TestScannerRecognizesPunctuation(t *testing.T) {
	s := NewScanner("::= % [ ] ( ) . :")
	wantKinds := []Kind{KindArrow, KindPercent, KindLBracket, KindRBracket, KindLParen, KindRParen, KindDot, KindColon, KindEOF}
	for _, want := range wantKinds {
		tok, err := s.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.Kind != want {
			t.Fatalf("got %s, want %s", tok.Kind, want)
		}
	}
}

func TestScannerStripsComments(t *testing.T) {
	s := NewScanner("expr // a line comment\n/* block\ncomment */ NUM")
	tok, err := s.Next()
	if err != nil || tok.Kind != KindIdent || tok.Text != "expr" {
		t.Fatalf("got %v, %v", tok, err)
	}
	tok, err = s.Next()
	if err != nil || tok.Kind != KindIdent || tok.Text != "NUM" {
		t.Fatalf("got %v, %v", tok, err)
	}
	if tok.Line != 3 {
		t.Fatalf("expected line 3 after multi-line comment, got %d", tok.Line)
	}
}

func TestScannerCodeBlockNestedBraces(t *testing.T) {
	s := NewScanner(`{ if (x) { y = 1; } }`)
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != KindCode {
		t.Fatalf("expected code block, got %s", tok.Kind)
	}
	want := ` if (x) { y = 1; } `
	if tok.Text != want {
		t.Fatalf("got %q, want %q", tok.Text, want)
	}
}

func TestScannerCodeBlockEscapedQuote(t *testing.T) {
	s := NewScanner(`{ s = "a\"}b"; }`)
	tok, err := s.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Kind != KindCode {
		t.Fatalf("expected code block, got %s", tok.Kind)
	}
}

func TestScannerUnterminatedCodeBlock(t *testing.T) {
	s := NewScanner(`{ x = 1;`)
	_, err := s.Next()
	if err == nil {
		t.Fatal("expected unterminated code block error")
	}
}

func TestScannerIllegalCharacter(t *testing.T) {
	s := NewScanner(`@`)
	_, err := s.Next()
	if err == nil {
		t.Fatal("expected illegal character error")
	}
}

func TestScannerStringLiteral(t *testing.T) {
	s := NewScanner(`"hello world"`)
	tok, err := s.Next()
	if err != nil || tok.Kind != KindString || tok.Text != "hello world" {
		t.Fatalf("got %v, %v", tok, err)
	}
}
