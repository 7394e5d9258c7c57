package toc

import (
	"context"
	"fmt"
	"testing"

	"github.com/fichegen/fichegen/internal/providers"
)

func TestChooseDelta_Mode(t *testing.T) {
	delta, ok := chooseDelta(map[int]int{2: 5, 3: 2})
	if !ok {
		t.Fatal("expected a delta")
	}
	if delta != 2 {
		t.Errorf("expected mode +2, got %d", delta)
	}
}

func TestChooseDelta_TieBreakSmallestAbs(t *testing.T) {
	delta, ok := chooseDelta(map[int]int{1: 3, -1: 3})
	if !ok {
		t.Fatal("expected a delta")
	}
	if delta != -1 {
		t.Errorf("expected -1 on tie (smaller |delta|), got %d", delta)
	}
}

func TestChooseDelta_Empty(t *testing.T) {
	if _, ok := chooseDelta(nil); ok {
		t.Error("expected no delta for empty counts")
	}
}

func TestPrintedNumberCandidates(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []int
	}{
		{"explicit page", "Guide pédagogique\nPage 40", []int{40}},
		{"abbreviated", "p. 12", []int{12}},
		{"pag form", "pag. 7", []int{7}},
		{"explicit roman", "page xii", []int{12}},
		{"bare number line", "header text\n40\nfooter text", []int{40}},
		{"bare roman line", "iv", []int{4}},
		{"long line ignored", "the year 1984 was", nil},
		{"zero rejected", "page 0", nil},
		{"huge rejected", "3456", nil},
		{"mixed", "Page 40\n41", []int{40, 41}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := printedNumberCandidates(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

// offsetReader fabricates pages whose footers carry printed numbers shifted
// by a fixed delta.
type offsetReader struct {
	total int
	delta int
	blank map[int]bool
}

func (r *offsetReader) PageCount(path string) (int, error) {
	return r.total, nil
}

func (r *offsetReader) ExtractPage(path string, pageNum int) (string, error) {
	return r.text(pageNum), nil
}

func (r *offsetReader) ExtractHeaderFooter(path string, pageNum int, frac float64) (string, error) {
	return r.text(pageNum), nil
}

func (r *offsetReader) text(pageNum int) string {
	if r.blank[pageNum] {
		return ""
	}
	return fmt.Sprintf("Sciences CE2\n%d", pageNum-r.delta)
}

func TestDetector_Heuristic(t *testing.T) {
	d := &Detector{
		Reader:         &offsetReader{total: 30, delta: 2},
		ScanStartPages: 5,
	}

	if got := d.Detect(context.Background(), "guide.pdf"); got != 2 {
		t.Errorf("expected offset 2, got %d", got)
	}
}

func TestDetector_NoSignalNoClient(t *testing.T) {
	blank := make(map[int]bool)
	for i := 1; i <= 30; i++ {
		blank[i] = true
	}
	d := &Detector{
		Reader:         &offsetReader{total: 30, blank: blank},
		ScanStartPages: 5,
	}

	if got := d.Detect(context.Background(), "guide.pdf"); got != 0 {
		t.Errorf("expected default offset 0, got %d", got)
	}
}

func TestDetector_EmptyDocument(t *testing.T) {
	d := &Detector{
		Reader:         &offsetReader{total: 0},
		ScanStartPages: 5,
	}

	if got := d.Detect(context.Background(), "guide.pdf"); got != 0 {
		t.Errorf("expected 0 for empty document, got %d", got)
	}
}

// proseReader has unnumbered margins but readable body text, forcing the
// detector onto its AI fallback.
type proseReader struct {
	total int
}

func (r *proseReader) PageCount(path string) (int, error) {
	return r.total, nil
}

func (r *proseReader) ExtractPage(path string, pageNum int) (string, error) {
	return "L'eau change d'état sous l'effet de la chaleur du soleil.", nil
}

func (r *proseReader) ExtractHeaderFooter(path string, pageNum int, frac float64) (string, error) {
	return "", nil
}

func TestDetector_AIFallback(t *testing.T) {
	reader := &proseReader{total: 30}

	tests := []struct {
		name     string
		response string
		want     int
	}{
		{"valid integer accepted", "3", 3},
		{"out-of-range rejected", "500", 0},
		{"non-numeric rejected", "about two pages", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := providers.NewMockClient()
			client.ResponseText = tt.response

			d := &Detector{Reader: reader, ScanStartPages: 5, Client: client, Model: "pro"}
			if got := d.Detect(context.Background(), "guide.pdf"); got != tt.want {
				t.Errorf("expected offset %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRomanToInt(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"i", 1},
		{"iv", 4},
		{"IX", 9},
		{"xii", 12},
		{"XLII", 42},
		{"mcmxcix", 1999},
		{"abc", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := romanToInt(tt.in); got != tt.want {
			t.Errorf("romanToInt(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
