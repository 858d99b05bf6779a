package unsafe

import "unsafe"

// AsBytes reinterprets v's memory as a byte slice of the same length as
// sizeof(*v), without copying. The returned slice is only valid as long as v
// is alive and must not be retained past the call that fills or reads it.
// Callers filling *T via io.ReadFull from the wire are relying on the host
// being little-endian, same as record_reader.cpp's own struct reads.
func AsBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}
