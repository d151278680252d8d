// Package entropy provides random bytes to other devices.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"io"
)

// Source reads random bytes.
type Source struct {
	r io.Reader
}

// New returns a source backed by the operating system generator.
func New() *Source {
	return &Source{r: rand.Reader}
}

// FromReader returns a source reading from r. Intended for tests.
func FromReader(r io.Reader) *Source {
	return &Source{r: r}
}

// Read fills p.
func (s *Source) Read(p []byte) (int, error) {
	return io.ReadFull(s.r, p)
}

// Uint64 returns a random value. It panics if the generator fails.
func (s *Source) Uint64() uint64 {
	var b [8]byte
	if _, err := s.Read(b[:]); err != nil {
		panic("entropy: " + err.Error())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		panic("entropy: invalid argument to Intn")
	}
	return int(s.Uint64() % uint64(n))
}
