package qa

import "time"

// Supported content languages. "auto" asks the pipeline to detect one.
const (
	LanguageKazakh  = "kk"
	LanguageRussian = "ru"
	LanguageAuto    = "auto"
)

// Action is the discrete outcome of the decision engine.
type Action string

const (
	ActionDirectAnswer Action = "direct_answer"
	ActionClarify      Action = "clarify"
	ActionShowSimilar  Action = "show_similar"
	ActionNoMatch      Action = "no_match"
)

// Intent is the result of the lexical pre-filter.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentOffTopic Intent = "off_topic"
	IntentVague    Intent = "vague"
	IntentFAQ      Intent = "faq"
)

// CandidateSource marks which retrieval path produced a candidate.
type CandidateSource string

const (
	SourceVector  CandidateSource = "vector"
	SourceKeyword CandidateSource = "keyword"
)

// FAQEntry is a published knowledge base record. The query path only reads it;
// content management and the embedding backfill own mutation.
type FAQEntry struct {
	ID               int64
	Question         string
	Answer           string
	Category         string
	Language         string
	VideoReference   string
	FooterDisclaimer string
	Embedding        []float32
	Published        bool
	CreatedAt        time.Time
}

// SynonymEntry enriches query text before embedding.
type SynonymEntry struct {
	Term     string
	Language string
	Synonyms []string
}

// ScoredCandidate pairs an entry with its retrieval score. Scores are only
// comparable within a single candidate list.
type ScoredCandidate struct {
	Entry  FAQEntry
	Score  float64
	Source CandidateSource
}

// CandidateSummary is the lightweight serialized form persisted in the
// result cache and returned to transports.
type CandidateSummary struct {
	FAQID          int64   `json:"faqId"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	VideoReference string  `json:"videoReference,omitempty"`
	Category       string  `json:"category"`
	Score          float64 `json:"score"`
	Rank           int     `json:"rank"`
}

// CachedResult is the payload stored per normalized-query fingerprint.
type CachedResult struct {
	Fingerprint     string             `json:"fingerprint"`
	NormalizedQuery string             `json:"normalizedQuery"`
	Language        string             `json:"language"`
	Results         []CandidateSummary `json:"results"`
	HitCount        int64              `json:"hitCount"`
	LastUsedAt      time.Time          `json:"lastUsedAt"`
}

// PopularQuery is a frequently asked normalized query.
type PopularQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Options toggle the optional pipeline stages per request.
type Options struct {
	UseCache  bool `json:"useCache"`
	UseRerank bool `json:"useRerank"`
}

// Query is a single user question entering the pipeline.
type Query struct {
	Text     string  `json:"question"`
	Language string  `json:"language"`
	Options  Options `json:"options"`
}

// DecisionResult is what the pipeline hands to the transport layer. The
// transport owns turning it into user-facing text, buttons and media.
type DecisionResult struct {
	Action     Action             `json:"action"`
	Best       *CandidateSummary  `json:"best,omitempty"`
	Supporting []CandidateSummary `json:"supporting,omitempty"`
	Answer     string             `json:"answer,omitempty"`
	Score      float64            `json:"score"`
	Rationale  string             `json:"rationale"`
	Language   string             `json:"language"`
	FromCache  bool               `json:"fromCache"`
	TraceID    string             `json:"traceId"`

	// Diagnostics keeps weak matches for logging; never shown to users.
	Diagnostics []CandidateSummary `json:"-"`
}

// Stats summarizes the FAQ corpus for the admin surface.
type Stats struct {
	Total     int64 `json:"total"`
	WithVideo int64 `json:"withVideo"`
	Kazakh    int64 `json:"kazakh"`
	Russian   int64 `json:"russian"`
}
