package proto

import (
	"bytes"
	"io"
	"testing"
)

func TestEncodeDecodeTversion(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	if err := enc.WriteTversion(NoTag, 8192, "9P2000"); err != nil {
		t.Fatalf("WriteTversion: %v", err)
	}

	dec := NewDecoder(&buf)
	if !dec.Next() {
		t.Fatalf("Next: %v", dec.Err())
	}
	tv, ok := dec.Msg().(Tversion)
	if !ok {
		t.Fatalf("got %T, want Tversion", dec.Msg())
	}
	if tv.Msize() != 8192 {
		t.Errorf("Msize() = %d, want 8192", tv.Msize())
	}
	if string(tv.Version()) != "9P2000" {
		t.Errorf("Version() = %q, want 9P2000", tv.Version())
	}
}

func TestDecoderRejectsHugeMessage(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteRclunk(1)

	dec := NewDecoder(&buf)
	dec.MaxSize = 4 // smaller than any legal message

	if dec.Next() {
		t.Fatalf("expected Next to fail, got %v", dec.Msg())
	}
	if dec.Err() != ErrMaxSize {
		t.Errorf("Err() = %v, want ErrMaxSize", dec.Err())
	}
}

func TestDecoderSplitAcrossReads(t *testing.T) {
	var full bytes.Buffer
	enc := NewEncoder(&full)
	enc.WriteRclunk(7)
	raw := full.Bytes()

	pr, pw := io.Pipe()
	dec := NewDecoder(pr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, b := range raw {
			pw.Write([]byte{b})
		}
		pw.Close()
	}()

	if !dec.Next() {
		t.Fatalf("Next: %v", dec.Err())
	}
	rc, ok := dec.Msg().(Rclunk)
	if !ok {
		t.Fatalf("got %T, want Rclunk", dec.Msg())
	}
	if rc.Tag() != 7 {
		t.Errorf("Tag() = %d, want 7", rc.Tag())
	}
	<-done
}
