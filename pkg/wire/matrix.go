package wire

import "github.com/robotalks/blocks.go/pkg/hw"

// MatrixPort is the only port accepting dot matrix patterns.
const MatrixPort = 0x05

// EncodeMatrix packs a pattern into 4 bytes. Cells are laid out row by
// row from the most significant bit of the first byte; the last 7 bits
// are unused.
func EncodeMatrix(m hw.Matrix) [4]byte {
	var b [4]byte
	for r := 0; r < hw.MatrixSize; r++ {
		for c := 0; c < hw.MatrixSize; c++ {
			if m[r][c] {
				k := r*hw.MatrixSize + c
				b[k/8] |= 0x80 >> uint(k%8)
			}
		}
	}
	return b
}

// DecodeMatrix unpacks 4 bytes into a pattern.
func DecodeMatrix(b [4]byte) hw.Matrix {
	var m hw.Matrix
	for r := 0; r < hw.MatrixSize; r++ {
		for c := 0; c < hw.MatrixSize; c++ {
			k := r*hw.MatrixSize + c
			m[r][c] = b[k/8]&(0x80>>uint(k%8)) != 0
		}
	}
	return m
}

// MatrixFromBits builds a pattern from the low 25 bits of v, cell (0,0)
// being bit 24.
func MatrixFromBits(v uint32) hw.Matrix {
	var m hw.Matrix
	for k := 0; k < hw.MatrixSize*hw.MatrixSize; k++ {
		m[k/hw.MatrixSize][k%hw.MatrixSize] = v&(1<<uint(24-k)) != 0
	}
	return m
}
