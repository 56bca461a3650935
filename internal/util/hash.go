package util

import "hash/fnv"

// Digest is a short fingerprint of a completed record, used to correlate
// producer and consumer log lines. It is not an integrity check.
func Digest(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}
