package model

// Settings: настраиваемые константы движка. Передаётся по значению и не меняется после загрузки.
type Settings struct {
	SemanticWeight     float64  `yaml:"semantic_weight" json:"semanticWeight" validate:"gte=0,lte=1"`
	KeywordWeight      float64  `yaml:"keyword_weight" json:"keywordWeight" validate:"gte=0,lte=1"`
	BrandWeight        float64  `yaml:"brand_weight" json:"brandWeight" validate:"gte=0,lte=1"`
	Threshold          float64  `yaml:"threshold" json:"threshold" validate:"gte=0,lte=100"`
	TieBreakerMargin   float64  `yaml:"tie_breaker_margin" json:"tieBreakerMargin" validate:"gte=0,lte=100"`
	TopK               int      `yaml:"top_k" json:"topK" validate:"gte=1,lte=1000"`
	MismatchPenalty    float64  `yaml:"mismatch_penalty" json:"mismatchPenalty" validate:"gte=0,lte=1"`
	GenericIdentifiers []string `yaml:"generic_identifiers" json:"genericIdentifiers" validate:"dive,required"`
	StopWords          []string `yaml:"stop_words" json:"stopWords" validate:"dive,required"`
	Units              []string `yaml:"units" json:"units" validate:"dive,required,alphanum"`
	Workers            int      `yaml:"workers" json:"workers" validate:"gte=0,lte=256"`
	ProgressEvery      int      `yaml:"progress_every" json:"progressEvery" validate:"gte=0"`
}

// DefaultSettings mirrors the last production tuning of the matcher.
func DefaultSettings() Settings {
	return Settings{
		SemanticWeight:     0.55,
		KeywordWeight:      0.35,
		BrandWeight:        0.10,
		Threshold:          75,
		TieBreakerMargin:   2.5,
		TopK:               10,
		MismatchPenalty:    0.75,
		GenericIdentifiers: []string{"bulk", "loose", "local"},
		StopWords:          []string{"and", "with", "in", "for", "the", "a", "an", "premium", "flavoured", "flavored"},
		Units:              []string{"kg", "g", "gm", "ml", "l", "pcs"},
		Workers:            1,
		ProgressEvery:      50,
	}
}

// WeightSum is the sum of the three hybrid weights; a valid configuration keeps it at 1.
func (s Settings) WeightSum() float64 {
	return s.SemanticWeight + s.KeywordWeight + s.BrandWeight
}
