package badger

// Key prefixes for different data types
const (
	documentRecordPrefix = "docrec"
	documentTextPrefix   = "doctxt"
	documentSourcePrefix = "docsrc"
	shelfRecordPrefix    = "shlrec"
)

// makeDocumentKey generates a key for a document record by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentRecordPrefix + ":" + id)
}

// makeDocumentTextKey generates a key for a document's extracted text.
func makeDocumentTextKey(id string) []byte {
	return []byte(documentTextPrefix + ":" + id)
}

// makeDocumentSourceKey generates a key for a document's archived source bytes.
func makeDocumentSourceKey(id string) []byte {
	return []byte(documentSourcePrefix + ":" + id)
}

// makeShelfKey generates a key for a shelf record by ID.
func makeShelfKey(id string) []byte {
	return []byte(shelfRecordPrefix + ":" + id)
}
