package index

// PostingList holds the ordinals of every recipe that declares a given token.
// Ordinals are appended in corpus order during Build, so a list is always sorted
// ascending and free of duplicates.
type PostingList []uint32

// Len returns the number of recipes in the list.
func (pl PostingList) Len() int {
	return len(pl)
}
