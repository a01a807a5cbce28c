package domain

// Document is one source text owned by a corpus.
type Document struct {
	ID   int    `json:"id"`   // position in ingestion order
	Name string `json:"name"` // source identifier, e.g. a file path
	Text string `json:"text"`
}

// Source is a raw (name, text) pair handed to corpus construction.
type Source struct {
	Name string
	Text string
}

// ScoredDocument is one entry of a query result. Lower distance means more similar.
type ScoredDocument struct {
	Document Document `json:"document"`
	Distance float64  `json:"distance"`
}

// SamplingConfig controls answer generation.
type SamplingConfig struct {
	MaxNewTokens int     `yaml:"max_new_tokens" json:"max_new_tokens" validate:"gt=0"`
	DoSample     bool    `yaml:"do_sample" json:"do_sample"`
	Temperature  float64 `yaml:"temperature" json:"temperature" validate:"gt=0"`
}

// Answer is the full outcome of one pipeline run.
type Answer struct {
	Query     string           `json:"query"`
	Retrieved []ScoredDocument `json:"retrieved"`
	Context   string           `json:"context"`
	Prompt    string           `json:"prompt"`
	Text      string           `json:"text"`
}

// Names returns the source names of the retrieved documents in rank order.
func (a *Answer) Names() []string {
	names := make([]string, len(a.Retrieved))
	for i, r := range a.Retrieved {
		names[i] = r.Document.Name
	}
	return names
}
