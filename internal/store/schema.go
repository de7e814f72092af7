package store

import "fmt"

// schemaSQL renders the schema with the embedding dimension baked into the
// HNSW index definition.
func schemaSQL(embedDim int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- SIGNAL TABLE (raw collected market signals)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS signal SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS signal_type ON signal TYPE string;
    DEFINE FIELD IF NOT EXISTS source ON signal TYPE string;
    DEFINE FIELD IF NOT EXISTS data ON signal TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS priority ON signal TYPE int DEFAULT 5;
    DEFINE FIELD IF NOT EXISTS created ON signal TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS signal_type_idx ON signal FIELDS signal_type;
    DEFINE INDEX IF NOT EXISTS signal_created ON signal FIELDS created;

    -- ==========================================================================
    -- INSIGHT TABLE (ranked research output)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS insight SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS headline ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS company_name ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS company_symbol ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS signal_type ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS analysis ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS evidence ON insight TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS interestingness_score ON insight TYPE float;
    DEFINE FIELD IF NOT EXISTS metadata ON insight TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS signal_priority ON insight TYPE int DEFAULT 5;
    DEFINE FIELD IF NOT EXISTS predicted_quality ON insight TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS embedding ON insight TYPE option<array<float>>;
    DEFINE FIELD IF NOT EXISTS created ON insight TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS insight_symbol ON insight FIELDS company_symbol;
    DEFINE INDEX IF NOT EXISTS insight_created ON insight FIELDS created;
    DEFINE INDEX IF NOT EXISTS insight_embedding ON insight FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
    DEFINE ANALYZER IF NOT EXISTS insight_analyzer TOKENIZERS class FILTERS lowercase, ascii, snowball(english);
    DEFINE INDEX IF NOT EXISTS insight_analysis_ft ON insight FIELDS analysis FULLTEXT ANALYZER insight_analyzer BM25;

    -- ==========================================================================
    -- FEEDBACK TABLE (human star ratings, many rows per insight allowed)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS feedback SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS insight_id ON feedback TYPE string;
    DEFINE FIELD IF NOT EXISTS star_rating ON feedback TYPE int ASSERT $value >= 1 AND $value <= 5;
    DEFINE FIELD IF NOT EXISTS tags ON feedback TYPE option<array<string>>;
    DEFINE FIELD IF NOT EXISTS comment ON feedback TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON feedback TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS feedback_insight ON feedback FIELDS insight_id;
`, embedDim)
}
