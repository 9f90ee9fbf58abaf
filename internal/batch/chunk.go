package batch

// DefaultChunkSize is the number of identifiers sent per lookup request.
const DefaultChunkSize = 50

// Chunk partitions items into consecutive chunks of at most size elements.
// The input is not modified and every chunk is a fresh slice, so callers may
// append to a chunk without touching its neighbours. A size below 1 is
// treated as 1.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunk := make([]T, end-start)
		copy(chunk, items[start:end])
		chunks = append(chunks, chunk)
	}
	return chunks
}
