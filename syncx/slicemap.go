package syncx

// Hashable is an interface that any type must implement to be stored in our data structure.
// The Digest() method should return a unique string key for the object.
type Hashable interface {
	Digest() string
}

// HashedSlice is an immutable, ordered collection with key-based lookup.
// Once built it is never modified, so it can be shared between goroutines
// and swapped as a whole.
type HashedSlice[T Hashable] struct {
	slice  []T
	lookup map[string]int
}

// NewHashedSlice creates and returns an empty HashedSlice.
func NewHashedSlice[T Hashable]() *HashedSlice[T] {
	return &HashedSlice[T]{
		slice:  make([]T, 0),
		lookup: make(map[string]int),
	}
}

// NewHashedSliceFromSlice copies items into a HashedSlice. Items whose digest
// was already seen are dropped; the number dropped is returned.
func NewHashedSliceFromSlice[T Hashable](items []T) (*HashedSlice[T], int) {
	lookup := make(map[string]int, len(items))
	slice := make([]T, 0, len(items))
	dropped := 0
	for _, item := range items {
		digest := item.Digest()
		if _, exists := lookup[digest]; exists {
			dropped++
			continue
		}
		lookup[digest] = len(slice)
		slice = append(slice, item)
	}
	return &HashedSlice[T]{
		slice:  slice,
		lookup: lookup,
	}, dropped
}

// AsSlice returns a copy of the items in order.
func (fss *HashedSlice[T]) AsSlice() []T {
	out := make([]T, len(fss.slice))
	copy(out, fss.slice)
	return out
}

// GetByDigest searches for an item by its digest (key).
// It returns false if no item with that digest is found.
func (fss *HashedSlice[T]) GetByDigest(digest string) (T, bool) {
	index, found := fss.lookup[digest]
	if !found {
		var zero T
		return zero, false
	}
	return fss.slice[index], true
}

// Len returns the number of items in the data structure.
func (fss *HashedSlice[T]) Len() int {
	return len(fss.slice)
}
