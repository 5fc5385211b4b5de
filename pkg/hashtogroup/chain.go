package hashtogroup

import "crypto/sha256"

// SeedChain supplies the seed of each prime candidate. The sampler advances
// it after every attempt.
type SeedChain interface {
	Seed() []byte
	Advance()
}

type sha256Chain struct {
	state [sha256.Size]byte
}

// NewSHA256Chain starts at SHA-256(seed) and rehashes on every Advance.
func NewSHA256Chain(seed []byte) SeedChain {
	return &sha256Chain{state: sha256.Sum256(seed)}
}

func (c *sha256Chain) Seed() []byte {
	return append([]byte(nil), c.state[:]...)
}

func (c *sha256Chain) Advance() {
	c.state = sha256.Sum256(c.state[:])
}
