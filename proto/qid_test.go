package proto

import "testing"

func TestQidRoundTrip(t *testing.T) {
	cases := []struct {
		qtype   QidType
		version uint32
		path    uint64
	}{
		{QTFILE, 0, 0},
		{QTDIR, 1, 0xdeadbeef},
		{QTAUTH, 42, 1<<64 - 1},
		{QTSYMLINK, 7, 12345},
	}
	for _, c := range cases {
		buf := make([]byte, QidLen)
		q, rest, err := NewQid(buf, c.qtype, c.version, c.path)
		if err != nil {
			t.Fatalf("NewQid: %v", err)
		}
		if len(rest) != 0 {
			t.Fatalf("expected buf to be fully consumed, %d bytes left", len(rest))
		}
		if q.Type() != c.qtype {
			t.Errorf("Type() = %v, want %v", q.Type(), c.qtype)
		}
		if q.Version() != c.version {
			t.Errorf("Version() = %d, want %d", q.Version(), c.version)
		}
		if q.Path() != c.path {
			t.Errorf("Path() = %d, want %d", q.Path(), c.path)
		}
	}
}

func TestNewQidShortBuffer(t *testing.T) {
	buf := make([]byte, QidLen-1)
	if _, _, err := NewQid(buf, QTFILE, 0, 0); err == nil {
		t.Fatal("expected error for undersized buffer")
	}
}

func TestValidQidType(t *testing.T) {
	if !validQidType(uint8(QTDIR | QTAPPEND)) {
		t.Error("combination of known bits should be valid")
	}
	if validQidType(0xFF) {
		t.Error("0xFF should not be a valid qid type")
	}
}
