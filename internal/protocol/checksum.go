package protocol

// Checksum returns the one's complement of the 8-bit wrapping sum of data.
// It detects accidental corruption only; byte transpositions and corruptions
// whose deltas cancel out are not detected.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum
}
