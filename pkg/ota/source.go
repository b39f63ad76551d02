package ota

import "io"

// Source supplies firmware image bytes to the transfer engine.
//
// Size returns the exact image length in bytes, or 0 when the length is
// unknown. An unknown length makes the engine announce an open-ended
// transfer and scan for the erased tail instead of counting bytes.
type Source interface {
	io.Reader
	Size() uint32
}

// BlobSource serves a fully loaded image from memory. Its length is
// exact, so the engine sends every byte without scanning.
type BlobSource struct {
	data []byte
	off  int
}

// NewBlobSource creates a Source over an in-memory image.
func NewBlobSource(data []byte) *BlobSource {
	return &BlobSource{data: data}
}

// Read implements io.Reader.
func (s *BlobSource) Read(p []byte) (int, error) {
	if s.off >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.off:])
	s.off += n
	return n, nil
}

// Size returns the image length.
func (s *BlobSource) Size() uint32 {
	return uint32(len(s.data))
}

// RegionSource serves a raw storage region of known capacity but
// unknown image length, such as a flash partition dump. Size reports 0
// and the engine stops at the erased tail.
type RegionSource struct {
	r io.Reader
}

// NewRegionSource creates a Source that reads at most capacity bytes
// from r.
func NewRegionSource(r io.Reader, capacity uint32) *RegionSource {
	return &RegionSource{r: io.LimitReader(r, int64(capacity))}
}

// Read implements io.Reader.
func (s *RegionSource) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Size reports 0: the true image length inside the region is unknown.
func (s *RegionSource) Size() uint32 {
	return 0
}

var (
	_ Source = (*BlobSource)(nil)
	_ Source = (*RegionSource)(nil)
)
