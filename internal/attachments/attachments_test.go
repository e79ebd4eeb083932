package attachments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("rfi", "rfi-12345-6789", "att_a1b2c3", "shop-drawing.pdf")
	assert.Equal(t, "rfi/rfi-12345-6789/att_a1b2c3/shop-drawing.pdf", key)
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"drawing.pdf", "drawing.pdf"},
		{"  drawing.pdf  ", "drawing.pdf"},
		{"../../etc/passwd", "passwd"},
		{"/var/tmp/upload.bin", "upload.bin"},
		{`C:\Users\sam\specs.xlsx`, "specs.xlsx"},
		{"nested/dir/file.dwg", "file.dwg"},
		{"", ""},
		{".", ""},
		{"/", ""},
		{"..", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFileName(tc.in), "input %q", tc.in)
	}
}
