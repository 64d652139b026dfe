package ident

import (
	"regexp"
	"strings"
	"sync"
	"testing"
)

var receiptPattern = regexp.MustCompile(`^YPG-[0-9A-F]{8}$`)

func TestNewReceiptCode_Format(t *testing.T) {
	code := NewReceiptCode("ypg")
	if !receiptPattern.MatchString(code) {
		t.Errorf("Expected code matching %s, got %q", receiptPattern, code)
	}

	if code := NewReceiptCode(""); !strings.HasPrefix(code, DefaultReceiptPrefix+"-") {
		t.Errorf("Expected default prefix, got %q", code)
	}
}

func TestNewReceiptCode_Distinct(t *testing.T) {
	const n = 200
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		codes = make(map[string]struct{}, n)
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := NewReceiptCode("YPG")
			mu.Lock()
			codes[code] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	// 32 random bits; a collision among 200 draws is vanishingly unlikely.
	if len(codes) != n {
		t.Errorf("Expected %d distinct codes, got %d", n, len(codes))
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Annual Youth Rally", "annual-youth-rally"},
		{"  Hello,   World!  ", "hello-world"},
		{"Café Évangélique", "cafe-evangelique"},
		{"2024 Camp -- Day_1", "2024-camp-day-1"},
		{"Rally!!!", "rally"},
		{"???", "post"},
		{"", "post"},
	}

	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSlugCandidate(t *testing.T) {
	if got := SlugCandidate("rally", 0); got != "rally" {
		t.Errorf("Expected base slug, got %q", got)
	}
	if got := SlugCandidate("rally", 2); got != "rally-2" {
		t.Errorf("Expected rally-2, got %q", got)
	}
}

func TestNewTransactionID(t *testing.T) {
	a := NewTransactionID()
	b := NewTransactionID()

	if !strings.HasPrefix(a, "TXN-") || len(a) != len("TXN-")+26 {
		t.Errorf("Unexpected transaction id %q", a)
	}
	if a == b {
		t.Error("Expected distinct transaction ids")
	}
}
