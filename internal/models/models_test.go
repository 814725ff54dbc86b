package models

import (
	"encoding/json"
	"testing"
)

func TestQueryValues(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{name: "first page defaults", query: NewQuery(0), want: "page=1&pageSize=30"},
		{name: "all filters", query: Query{Text: " sunset ", Category: "landscape", Tag: "sea", Page: 2, PageSize: 30}, want: "category=landscape&page=2&pageSize=30&q=sunset&tag=sea"},
		{name: "page below one clamps", query: Query{Page: 0, PageSize: 6}, want: "page=1&pageSize=6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.Values().Encode(); got != tt.want {
				t.Errorf("Values() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuerySameFilter(t *testing.T) {
	base := Query{Text: "sunset", Category: "c", Tag: "t", Page: 1, PageSize: 30}

	if !base.SameFilter(base.WithPage(4)) {
		t.Error("pagination should not change filter identity")
	}
	changed := base
	changed.Tag = "other"
	if base.SameFilter(changed) {
		t.Error("tag change should change filter identity")
	}
}

func TestPhotoDetailDecode(t *testing.T) {
	body := `{"id":7,"title":"Dusk","author":"ana","thumb_url":"","image_url":"/img/7.webp",
	"description":null,"camera":"X100V","tags":["sunset","sea"],"likes":3,"favorites":1,
	"comments":[{"id":1,"content":"nice","username":"bo","created_at":"2024-05-01T10:00:00"}],
	"liked_by_me":true,"created_at":"2024-05-01T09:00:00"}`

	var d PhotoDetail
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if d.ID != 7 || d.Likes != 3 || len(d.Comments) != 1 || !d.LikedByMe {
		t.Errorf("unexpected decode result: %+v", d)
	}
	if d.Thumb() != "/img/7.webp" {
		t.Errorf("expected thumb fallback to image url, got %s", d.Thumb())
	}
	if got := d.Metadata().Tags; got != "sunset,sea" {
		t.Errorf("expected joined tags, got %s", got)
	}
}
