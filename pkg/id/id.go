// Package id issues the identifiers stamped onto lots and journal fills.
// They are ULIDs, so sorting records by ID reproduces creation order down
// to sub-millisecond resolution.
package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

var gen = newGenerator()

func newGenerator() *generator {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic entropy keeps IDs minted in the same millisecond strictly
	// increasing, which FIFO consumption relies on.
	return &generator{entropy: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)}
}

func (g *generator) next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(time.Now().UTC()), g.entropy)
	if err != nil {
		panic(err)
	}
	return u.String()
}

// New returns a fresh time-sortable identifier.
func New() string {
	return gen.next()
}
