// Package arena is a free list that provides quick access to
// pre-allocated byte slices, greatly reducing memory churn for the
// per-peer read buffers of the message plane. After the arena is
// created, a slice of bytes can be requested by calling Pop(). The
// caller is responsible for calling Push(), which puts the block back
// in the queue for later use. Bytes given by Pop() are not zeroed, so
// callers must only read positions known to have been overwritten.
package arena

type Arena chan []byte

func NewArena(blockSize int, numBlocks int) Arena {
	blocks := make(Arena, numBlocks)
	for i := 0; i < numBlocks; i++ {
		blocks <- make([]byte, blockSize)
	}
	return blocks
}

func (a Arena) Pop() (x []byte) {
	return <-a
}

func (a Arena) Push(x []byte) {
	x = x[:cap(x)]
	a <- x
}
