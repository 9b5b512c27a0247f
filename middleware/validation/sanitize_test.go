package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitize_TrimsAndIsIdempotent(t *testing.T) {
	in := "  bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a \n"
	once, err := Sanitize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if once != strings.TrimSpace(in) {
		t.Fatalf("expected trimmed value, got %q", once)
	}
	twice, err := Sanitize(once)
	if err != nil || twice != once {
		t.Fatalf("expected idempotence, got %q %v", twice, err)
	}
}

func TestSanitize_Rejections(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmptyAddress},
		{"whitespace", " \t ", ErrEmptyAddress},
		{"too long", strings.Repeat("q", MaxAddressLength+1), ErrAddressTooLong},
		{"script tag", "<script>alert(1)</script>", ErrSuspiciousAddress},
		{"closing tag", "abc</b>", ErrSuspiciousAddress},
		{"javascript uri", "JavaScript:alert(1)", ErrSuspiciousAddress},
		{"data uri", "data:text/html;base64,xx", ErrSuspiciousAddress},
		{"event handler", "x onerror = y", ErrSuspiciousAddress},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Sanitize(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSanitize_LengthCountsRunes(t *testing.T) {
	s := strings.Repeat("é", MaxAddressLength)
	if _, err := Sanitize(s); err != nil {
		t.Fatalf("expected %d runes to be accepted, got %v", MaxAddressLength, err)
	}
}

func TestClientMessage_Capitalizes(t *testing.T) {
	if got := clientMessage(ErrEmptyAddress); got != "Address cannot be empty" {
		t.Fatalf("unexpected message %q", got)
	}
}
