package schema

// emptyFingerprint seeds the CRC-64-AVRO Rabin fingerprint.
const emptyFingerprint uint64 = 0xc15d213aa4d7a795

var fingerprintTable = func() [256]uint64 {
	var t [256]uint64
	for i := range t {
		fp := uint64(i)
		for j := 0; j < 8; j++ {
			fp = (fp >> 1) ^ (emptyFingerprint & -(fp & 1))
		}
		t[i] = fp
	}
	return t
}()

// Fingerprint64 returns the 64-bit Rabin fingerprint of the canonical form of
// s. Schemas with equal fingerprints share a wire format.
func Fingerprint64(s Schema) uint64 {
	fp := emptyFingerprint
	for _, b := range []byte(Canonical(s)) {
		fp = (fp >> 8) ^ fingerprintTable[byte(fp)^b]
	}
	return fp
}
