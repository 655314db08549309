package locale

import (
	"testing"
	"time"
)

func TestFormatDate(t *testing.T) {
	cases := []struct {
		input time.Time
		want  string
	}{
		{input: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), want: "15 de março de 2024"},
		{input: time.Date(2023, 12, 1, 15, 0, 0, 0, time.UTC), want: "1 de dezembro de 2023"},
		// 02:00 UTC 仍是圣保罗时间的前一天
		{input: time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), want: "31 de dezembro de 2023"},
		{input: time.Time{}, want: ""},
	}

	for _, tc := range cases {
		if got := FormatDate(tc.input); got != tc.want {
			t.Fatalf("FormatDate(%v) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFormatDateTime(t *testing.T) {
	got := FormatDateTime(time.Date(2024, 3, 15, 17, 5, 0, 0, time.UTC))
	if got != "15/03/2024 14:05" {
		t.Fatalf("unexpected datetime %q", got)
	}
}

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		input int64
		want  string
	}{
		{input: 0, want: ""},
		{input: 512, want: "512 B"},
		{input: 2048, want: "2,0 KB"},
		{input: 2516582, want: "2,4 MB"},
	}

	for _, tc := range cases {
		if got := FormatFileSize(tc.input); got != tc.want {
			t.Fatalf("FormatFileSize(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
