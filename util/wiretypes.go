package util

// Big-endian stamps written into granules and messages.

func ReadUint32(buf []byte) (v uint32) {
	v |= uint32(buf[0]) << 24
	v |= uint32(buf[1]) << 16
	v |= uint32(buf[2]) << 8
	v |= uint32(buf[3])
	return
}

func WriteUint32(buf []byte, v uint32) {
	buf[0] = byte(v >> 24)
	buf[1] = byte(v >> 16)
	buf[2] = byte(v >> 8)
	buf[3] = byte(v)
}

func ReadUint16(buf []byte) (v uint16) {
	v |= uint16(buf[0]) << 8
	v |= uint16(buf[1])
	return
}

func WriteUint16(buf []byte, v uint16) {
	buf[0] = byte(v >> 8)
	buf[1] = byte(v)
}
