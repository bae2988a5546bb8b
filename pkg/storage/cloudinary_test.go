package storage

import "testing"

func TestPublicID(t *testing.T) {
	cases := []struct {
		url, want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/studentms/students/17-ali.webp", "studentms/students/17-ali"},
		{"https://res.cloudinary.com/demo/image/upload/staff/photo.jpg", "staff/photo"},
		{"https://res.cloudinary.com/demo/image/upload/vacation/photo.jpg", "vacation/photo"},
		{"https://res.cloudinary.com/demo/image/upload/", ""},
		{"https://example.com/photo.jpg", ""},
	}

	for _, tc := range cases {
		if got := PublicID(tc.url); got != tc.want {
			t.Errorf("PublicID(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
