package models

// Source is one cited chunk in a chat answer. Relevance is the cosine
// similarity (1 - distance) rendered with two decimals.
type Source struct {
	Source    string `json:"source"`
	Snippet   string `json:"snippet"`
	Relevance string `json:"relevance"`
}

// DocumentSummary is one grouped entry in the document listing.
type DocumentSummary struct {
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename"`
	Filetype   string `json:"filetype"`
	UploadedAt string `json:"uploadedAt,omitempty"`
	ChunkCount int    `json:"chunkCount"`
}

// IngestResult reports a completed document ingest.
type IngestResult struct {
	DocumentID  string `json:"documentId"`
	ChunksAdded int    `json:"chunksAdded"`
}

// DeleteResult reports a document deletion. Deleted is false when neither
// a documentId nor a legacy source match was found; that is a normal
// not-found outcome, not an error.
type DeleteResult struct {
	Deleted       bool   `json:"deleted"`
	DocumentID    string `json:"documentId"`
	ChunksDeleted int    `json:"chunksDeleted"`
}

type CollectionStats struct {
	TotalChunks    int `json:"totalChunks"`
	TotalDocuments int `json:"totalDocuments"`
}
