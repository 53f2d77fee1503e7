package chat

import (
	"math/rand/v2"
	"sync"
)

// DefaultSlangChance is the probability a slang word is appended when
// the postprocessor is enabled.
const DefaultSlangChance = 0.3

// Postprocessor applies an optional cosmetic transform to the final
// reply. It must run before the reply is archived so that subsequent
// turns see exactly what the caller saw. Safe for concurrent use.
type Postprocessor struct {
	enabled bool
	words   []string
	chance  float64

	// mu guards rng; Apply is called from concurrent requests and
	// *rand.Rand is not safe for unsynchronized use.
	mu  sync.Mutex
	rng *rand.Rand
}

// PostprocessorConfig configures a Postprocessor.
type PostprocessorConfig struct {
	Enabled bool
	Words   []string
	Chance  float64 // 0 uses DefaultSlangChance

	// Seed fixes the RNG, for tests. 0 uses a random seed.
	Seed uint64
}

// NewPostprocessor creates a postprocessor.
func NewPostprocessor(cfg PostprocessorConfig) *Postprocessor {
	chance := cfg.Chance
	if chance <= 0 {
		chance = DefaultSlangChance
	}
	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Seed, 0))
	} else {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Postprocessor{
		enabled: cfg.Enabled,
		words:   cfg.Words,
		chance:  chance,
		rng:     rng,
	}
}

// Apply returns the reply, possibly suffixed with one slang word.
func (p *Postprocessor) Apply(reply string) string {
	if p == nil || !p.enabled || len(p.words) == 0 || reply == "" {
		return reply
	}

	p.mu.Lock()
	roll := p.rng.Float64()
	idx := p.rng.IntN(len(p.words))
	p.mu.Unlock()

	if roll >= p.chance {
		return reply
	}
	return reply + " " + p.words[idx]
}
