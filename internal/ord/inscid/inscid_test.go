package inscid

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []ID{
		New([32]byte{}, 0),
		New([32]byte{0x01, 0x02, 0xff}, 7),
		New([32]byte{0xde, 0xad, 0xbe, 0xef}, 4294967295),
	}
	for _, want := range cases {
		s := want.String()
		got, ok := Parse(s)
		if !ok {
			t.Fatalf("Parse(%q) failed to parse round-tripped string", s)
		}
		if !got.Equal(want) {
			t.Fatalf("round trip mismatch: want %+v got %+v (via %q)", want, got, s)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"nohere0",
		"00i0",                // txid too short
		strRepeat("zz", 32) + "i0", // non-hex
		strRepeat("ab", 32) + "inotanumber",
		strRepeat("ab", 32), // missing 'i'
	}
	for _, s := range bad {
		if _, ok := Parse(s); ok {
			t.Fatalf("Parse(%q) unexpectedly succeeded", s)
		}
	}
}

func TestStringFormatsReversed(t *testing.T) {
	var txid [32]byte
	txid[0] = 0xaa
	txid[31] = 0xbb
	id := New(txid, 3)
	s := id.String()
	want := "bb" + strRepeat("00", 30) + "aai3"
	if s != want {
		t.Fatalf("String() = %q, want %q", s, want)
	}
}

func strRepeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
