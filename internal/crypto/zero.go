package crypto

// Zero overwrites b in place. Used on master-password buffers and session
// keys on every exit path so secrets do not linger until garbage collection.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
