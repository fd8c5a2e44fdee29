package transcript

import "testing"

func TestTranscript_IsEmpty(t *testing.T) {
	tests := []struct {
		name string
		tr   Transcript
		want bool
	}{
		{"no text", Transcript{}, true},
		{"whitespace only", Transcript{Text: "  \n\t "}, true},
		{"real speech", Transcript{Text: "저는 백엔드 개발자입니다."}, false},
		{
			"segments without joined text",
			Transcript{Segments: []Segment{{Start: 0, End: 1.5, Text: "안녕하세요"}}, Text: ""},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}
