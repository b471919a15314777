package types

// Label identifies which side of a match a document is on
type Label string

const (
	LabelResume Label = "resume"
	LabelJob    Label = "job"
)

// Document is one input text of a match
type Document struct {
	Label Label  `json:"label"`
	Text  string `json:"text"`
}

// Weights are the coefficients applied to the semantic and keyword scores
type Weights struct {
	Semantic float64 `json:"semantic"`
	Keyword  float64 `json:"keyword"`
}

// MatchReport is the result of matching a resume against a job description.
// All scores are in [0, 100] with two decimals.
type MatchReport struct {
	SemanticScore   float64  `json:"semanticScore"`
	KeywordScore    float64  `json:"keywordScore"`
	FinalScore      float64  `json:"finalScore"`
	ResumeKeywords  []string `json:"resumeKeywords"`
	JobKeywords     []string `json:"jobKeywords"`
	MatchedKeywords []string `json:"matchedKeywords"` // job keywords found in the resume, job rank order
	MissingKeywords []string `json:"missingKeywords"`
	Weights         Weights  `json:"weights"`
}

// KeywordReport holds the ranked phrases of a single document
type KeywordReport struct {
	Source   string   `json:"source,omitempty"`
	Language string   `json:"language"`
	Keywords []string `json:"keywords"`
}

// MatchRequest is the body of POST /match
type MatchRequest struct {
	Resume         string `json:"resume" validate:"required"`
	JobDescription string `json:"jobDescription" validate:"required"`
}

// KeywordsRequest is the body of POST /keywords
type KeywordsRequest struct {
	Text        string `json:"text" validate:"required"`
	MaxKeywords *int   `json:"maxKeywords,omitempty" validate:"omitempty,gte=0,lte=500"`
}
