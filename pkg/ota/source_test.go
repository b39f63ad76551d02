package ota

import (
	"bytes"
	"io"
	"testing"
)

func TestBlobSource(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	src := NewBlobSource(data)

	if src.Size() != 5 {
		t.Errorf("Size() = %d, want 5", src.Size())
	}

	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("read %v, want %v", got, data)
	}
}

func TestRegionSourceBoundedByCapacity(t *testing.T) {
	backing := bytes.Repeat([]byte{0xAB}, 1000)
	src := NewRegionSource(bytes.NewReader(backing), 600)

	if src.Size() != 0 {
		t.Errorf("Size() = %d, want 0 (unknown)", src.Size())
	}

	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 600 {
		t.Errorf("read %d bytes, want capacity 600", len(got))
	}
}

func TestRegionSourceShortBacking(t *testing.T) {
	backing := bytes.Repeat([]byte{0xAB}, 100)
	src := NewRegionSource(bytes.NewReader(backing), 600)

	got, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(got) != 100 {
		t.Errorf("read %d bytes, want 100", len(got))
	}
}
