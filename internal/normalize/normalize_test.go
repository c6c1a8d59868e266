package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "timecode range and symbols",
			raw:  "00:00:06,000 --> 00:00:12,074\nHello!! @world",
			want: "Hello!! world",
		},
		{
			name: "dot separated timecode",
			raw:  "00:01:02.500 --> 00:01:04.250\nWhere are you going?",
			want: "Where are you going?",
		},
		{
			name: "standalone timestamp",
			raw:  "at 01:02:03 he left",
			want: "at he left",
		},
		{
			name: "srt block with markup",
			raw:  "1\n00:00:01,000 --> 00:00:02,000\n<i>Don't move.</i>\n\n2\n00:00:03,000 --> 00:00:04,000\n- Run!",
			want: "1 i Don't move. i 2 Run!",
		},
		{
			name: "non ascii letters become spaces",
			raw:  "café naïve",
			want: "caf na ve",
		},
		{
			name: "empty",
			raw:  "",
			want: "",
		},
		{
			name: "only noise",
			raw:  "@#$%^&*()",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.raw))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []string{
		"00:00:06,000 --> 00:00:12,074\nHello!! @world",
		"  spaced\t\tout\n\nlines  ",
		"{\\an8}Dialogue: 0,0:00:01.00,0:00:03.00,Default,,0,0,0,,Hi there",
		"WEBVTT\n\n00:00.000 --> 00:02.000\n♪ la la ♪",
		"a:b:c 12:34:56:78",
	}
	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %q", in)
	}
}
