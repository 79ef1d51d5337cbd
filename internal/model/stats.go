package model

type DocumentStats struct {
	DocName    string `json:"doc_name"`
	Category   string `json:"category,omitempty"`
	ChunkCount int    `json:"chunk_count"`
}

type CollectionStats struct {
	TotalChunks    int             `json:"total_chunks"`
	TotalDocuments int             `json:"total_documents"`
	Documents      []DocumentStats `json:"documents"`
}
