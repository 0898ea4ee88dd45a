package model

// EmbeddingDimension is the fixed dimensionality of project and query
// vectors. Vectors of any other length never match anything.
const EmbeddingDimension = 768

// QueryEmbeddingKey returns the store key memoizing the embedding of an
// ad hoc search query, kept apart from project keys by its prefix.
func QueryEmbeddingKey(query string) string {
	return "query:" + query
}
