package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  sick leave  ", "sick leave"},
		{"<b>fever</b>", "fever"},
		{"<script>alert(1)</script>family event", "family event"},
		{"I'm unwell", "I'm unwell"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
