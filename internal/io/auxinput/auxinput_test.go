package auxinput

import "testing"

func TestTrimEOL(t *testing.T) {
	cases := map[string]string{
		"ok\r\n": "ok",
		"ok\n":   "ok",
		"ok":     "ok",
		"":       "",
	}
	for in, want := range cases {
		if got := trimEOL(in); got != want {
			t.Errorf("trimEOL(%q) = %q, want %q", in, got, want)
		}
	}
}
