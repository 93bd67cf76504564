package pagination

import "testing"

func TestDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"empty", PageRequest{}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"kept", PageRequest{Page: 3, PageSize: 10}, PageRequest{Page: 3, PageSize: 10}},
		{"negative", PageRequest{Page: -2, PageSize: -5}, PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"oversized", PageRequest{Page: 1, PageSize: 500}, PageRequest{Page: 1, PageSize: MaxPageSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			got.Defaults()
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	if got := (PageRequest{Page: 3, PageSize: 20}).Offset(); got != 40 {
		t.Errorf("expected offset 40, got %d", got)
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[string](nil, PageRequest{Page: 1, PageSize: 20}, 0)
	if resp.Data == nil || len(resp.Data) != 0 {
		t.Errorf("expected empty non-nil data, got %#v", resp.Data)
	}
	if resp.TotalPages != 0 || resp.HasMore {
		t.Errorf("expected no pages, got %d (has_more=%v)", resp.TotalPages, resp.HasMore)
	}

	resp = NewPageResponse([]string{"a", "b"}, PageRequest{Page: 2, PageSize: 2}, 5)
	if resp.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", resp.TotalPages)
	}
	if !resp.HasMore {
		t.Error("expected has_more on page 2 of 3")
	}

	resp = NewPageResponse([]string{"e"}, PageRequest{Page: 3, PageSize: 2}, 5)
	if resp.HasMore {
		t.Error("expected no more pages on the last page")
	}
}
