package toc

import (
	"reflect"
	"testing"
)

func TestParsePageList(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []int
		wantErr bool
	}{
		{name: "single page", in: "42", want: []int{42}},
		{name: "range", in: "42-45", want: []int{42, 43, 44, 45}},
		{name: "comma list", in: "3,5,9", want: []int{3, 5, 9}},
		{name: "mixed list and ranges", in: "3,5,7-9", want: []int{3, 5, 7, 8, 9}},
		{name: "model prose around pages", in: "pages 42-45.", want: []int{42, 43, 44, 45}},
		{name: "whitespace", in: " 12 - 14 ", want: []int{12, 13, 14}},
		{name: "descending range skipped", in: "9-7,12", want: []int{12}},
		{name: "no digits", in: "introuvable", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "only separators", in: ",-,", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePageList(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParsePageList(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
