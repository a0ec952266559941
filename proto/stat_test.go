package proto

import (
	"bytes"
	"testing"
)

func testQid(t *testing.T) Qid {
	t.Helper()
	buf := make([]byte, QidLen)
	q, _, err := NewQid(buf, QTFILE, 1, 100)
	if err != nil {
		t.Fatalf("NewQid: %v", err)
	}
	return q
}

func TestStatRoundTrip(t *testing.T) {
	qid := testQid(t)
	s := NewStat(qid, 0644, 1000, 2000, 4096, "foo", "alice", "staff", "alice")

	if err := verifyStatBytes(s, false); err != nil {
		t.Fatalf("verifyStatBytes: %v", err)
	}
	if !bytes.Equal(s.Qid(), qid) {
		t.Errorf("Qid mismatch")
	}
	if s.Mode() != 0644 {
		t.Errorf("Mode() = %o, want 0644", s.Mode())
	}
	if string(s.Name()) != "foo" {
		t.Errorf("Name() = %q, want foo", s.Name())
	}
	if string(s.Uid()) != "alice" || string(s.Muid()) != "alice" {
		t.Errorf("Uid/Muid mismatch")
	}
	if int(s.Size())+2 != len(s) {
		t.Errorf("Size() = %d inconsistent with len(s) = %d", s.Size(), len(s))
	}
}

func TestStatUExtraFields(t *testing.T) {
	qid := testQid(t)
	s := NewStatU(qid, 0644, 0, 0, 0, "foo", "alice", "staff", "alice", "", 1000, 1000, 1000)
	if err := verifyStatBytes(s, true); err != nil {
		t.Fatalf("verifyStatBytes: %v", err)
	}
	if s.NUid() != 1000 || s.NGid() != 1000 || s.NMuid() != 1000 {
		t.Errorf("n_uid/n_gid/n_muid round trip failed: %d %d %d", s.NUid(), s.NGid(), s.NMuid())
	}
}

func TestMergeStatSentinelIsIdentity(t *testing.T) {
	qid := testQid(t)
	have := NewStat(qid, 0644, 10, 20, 30, "foo", "alice", "staff", "alice")
	want := NewStat(qid, DontTouchU32, DontTouchU32, DontTouchU32, DontTouchU64, "", "", "", "")
	buint16(want[2:4], DontTouchU16)

	merged, err := MergeStat(have, want)
	if err != nil {
		t.Fatalf("MergeStat: %v", err)
	}
	if !bytes.Equal(merged, have) {
		t.Errorf("merging all-sentinel stat changed the record:\nhave=%x\ngot =%x", []byte(have), []byte(merged))
	}
}

func TestMergeStatRejectsTypeChange(t *testing.T) {
	qid := testQid(t)
	have := NewStat(qid, 0644, 0, 0, 0, "foo", "alice", "staff", "alice")
	want := NewStat(qid, 0644|uint32(QTDIR)<<24, DontTouchU32, DontTouchU32, DontTouchU64, "", "", "", "")
	buint16(want[2:4], DontTouchU16)

	if _, err := MergeStat(have, want); err == nil {
		t.Fatal("expected ModeConflict error when changing file type via wstat")
	} else if _, ok := err.(ModeConflict); !ok {
		t.Fatalf("expected ModeConflict, got %T: %v", err, err)
	}
}

func TestMergeStatUpdatesName(t *testing.T) {
	qid := testQid(t)
	have := NewStat(qid, 0644, 0, 0, 0, "foo", "alice", "staff", "alice")
	want := NewStat(qid, DontTouchU32, DontTouchU32, DontTouchU32, DontTouchU64, "bar", "", "", "")
	buint16(want[2:4], DontTouchU16)

	merged, err := MergeStat(have, want)
	if err != nil {
		t.Fatalf("MergeStat: %v", err)
	}
	if string(merged.Name()) != "bar" {
		t.Errorf("Name() = %q, want bar", merged.Name())
	}
	if string(merged.Uid()) != "alice" {
		t.Errorf("Uid() = %q, want unchanged alice", merged.Uid())
	}
}
