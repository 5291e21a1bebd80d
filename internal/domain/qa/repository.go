package qa

import "context"

// VectorHit is a nearest-neighbour match with its cosine distance.
type VectorHit struct {
	Entry    FAQEntry
	Distance float64
}

// KeywordHit is a lexical match with a rank in [0,1].
type KeywordHit struct {
	Entry FAQEntry
	Rank  float64
}

// Repository encapsulates storage operations over the FAQ corpus.
type Repository interface {
	VectorSearch(ctx context.Context, vector []float32, language string, limit int) ([]VectorHit, error)
	KeywordSearch(ctx context.Context, query string, language string, limit int) ([]KeywordHit, error)
	Synonyms(ctx context.Context, language, query string) ([]string, error)

	GetByID(ctx context.Context, id int64) (FAQEntry, bool, error)
	Categories(ctx context.Context, language string) ([]string, error)
	ByCategory(ctx context.Context, category, language string, offset, limit int) ([]FAQEntry, error)
	Stats(ctx context.Context) (Stats, error)

	MissingEmbeddings(ctx context.Context, limit int) ([]FAQEntry, error)
	SetEmbedding(ctx context.Context, id int64, vector []float32) error
}
