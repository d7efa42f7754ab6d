package post

import (
	"errors"
	"testing"
)

func TestListFilter_Normalize(t *testing.T) {
	padded := "  go \t"
	blank := "   "

	tests := []struct {
		name       string
		in         ListFilter
		wantLimit  int
		wantOffset int
		wantSearch *string
	}{
		{name: "defaults", in: ListFilter{}, wantLimit: DefaultListLimit},
		{name: "clamps limit", in: ListFilter{Limit: 1000, Offset: -4}, wantLimit: MaxListLimit},
		{name: "trims search", in: ListFilter{Limit: 5, Search: &padded}, wantLimit: 5, wantSearch: strPtr("go")},
		{name: "blank search is dropped", in: ListFilter{Search: &blank}, wantLimit: DefaultListLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()

			if got.Limit != tt.wantLimit || got.Offset != tt.wantOffset {
				t.Fatalf("limit/offset = %d/%d, want %d/%d", got.Limit, got.Offset, tt.wantLimit, tt.wantOffset)
			}

			switch {
			case tt.wantSearch == nil && got.Search != nil:
				t.Fatalf("search = %q, want nil", *got.Search)
			case tt.wantSearch != nil && (got.Search == nil || *got.Search != *tt.wantSearch):
				t.Fatalf("search = %v, want %q", got.Search, *tt.wantSearch)
			}
		})
	}

	if padded != "  go \t" {
		t.Fatalf("Normalize must not modify the caller's string, got %q", padded)
	}
}

func TestPost_CheckOwner(t *testing.T) {
	p := Post{OwnerID: "owner"}

	if err := p.CheckOwner("owner"); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}

	if err := p.CheckOwner("someone-else"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func strPtr(s string) *string { return &s }
