package usecase

import (
	"crypto/rand"
	"io"

	"fotomagic-pro/internal/domain/model"
)

// randCutoff is the largest byte count that divides evenly into the alphabet.
// Bytes at or above it are redrawn; folding them back with a plain modulo
// would skew the first 256%31 symbols.
const randCutoff = 256 - 256%len(model.CodeAlphabet)

// generateCode creates a secure, random, human-readable redemption code.
// Format: FOTO-XXXX-XXXX over the ambiguity-free alphabet, each symbol drawn
// uniformly. Uniqueness is not guaranteed by construction; the store rejects
// the astronomically rare collision and the caller regenerates.
func generateCode() (string, error) {
	return generateCodeFrom(rand.Reader)
}

func generateCodeFrom(src io.Reader) (string, error) {
	const groupLen = 8 // two groups of four

	out := make([]byte, 0, groupLen)
	raw := make([]byte, groupLen)
	for len(out) < groupLen {
		if _, err := io.ReadFull(src, raw); err != nil {
			return "", err
		}
		for _, b := range raw {
			if len(out) == groupLen || int(b) >= randCutoff {
				continue
			}
			out = append(out, model.CodeAlphabet[int(b)%len(model.CodeAlphabet)])
		}
	}

	return model.CodePrefix + "-" + string(out[0:4]) + "-" + string(out[4:8]), nil
}
