// Package services defines the narrow interfaces through which the
// pipeline consumes external collaborators — corpus search, embeddings,
// LLM completion, and discovery storage — plus their production and
// null-object implementations.
//
// Every adapter must be safe for concurrent use across sessions and within
// a session's fan-out. "Adapter missing" is a static null-object type, not
// a nil check: stages attempt the call and fall back when it reports
// ErrUnavailable.
package services

import (
	"context"
	"errors"

	"github.com/quranlabs/tadabbur/pkg/models"
)

// ErrUnavailable is the typed transient failure adapters report when the
// backing collaborator is absent or unreachable. Stages treat it as a
// signal to take their fallback path.
var ErrUnavailable = errors.New("service unavailable")

// CorpusSearch retrieves verses and exegesis from the corpus store.
type CorpusSearch interface {
	// SearchByVector returns verses whose embedding cosine similarity to
	// vec exceeds threshold, best first.
	SearchByVector(ctx context.Context, vec []float32, topK int, threshold float64) ([]models.VerseRecord, error)

	// SearchByText runs the full-text ladder over the corpus.
	SearchByText(ctx context.Context, query string, topK int) ([]models.VerseRecord, error)

	// FetchExegesisFor returns tafseer entries grouped by verse id, each
	// group ordered by book priority.
	FetchExegesisFor(ctx context.Context, verseIDs []int) (map[int][]models.TafseerEntry, error)
}

// Embeddings turns a query into a vector.
type Embeddings interface {
	Embed(ctx context.Context, query string) ([]float32, error)
}

// LLM is the completion interface stages use. Implementations recover from
// provider outages by returning an error; stages always have a mock path.
type LLM interface {
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)

	// StreamComplete returns text fragments as the provider produces
	// them. The channel is closed when the completion ends; a provider
	// failure mid-stream simply closes the channel early.
	StreamComplete(ctx context.Context, system, user string, maxTokens int, temperature float64) (<-chan string, error)
}

// DiscoveryStore persists and lists final synthesis records.
type DiscoveryStore interface {
	Save(ctx context.Context, d models.Discovery) (string, error)
	List(ctx context.Context, tier string, limit int) ([]models.Discovery, error)
}

// Set bundles the adapters injected at orchestrator construction. All
// fields are non-nil; absent collaborators are wired as null objects.
type Set struct {
	Corpus     CorpusSearch
	Embeddings Embeddings
	LLM        LLM
	Store      DiscoveryStore
}

// NullSet returns a Set with every adapter absent — a fully mocked run.
func NullSet() Set {
	return Set{
		Corpus:     NullCorpus{},
		Embeddings: NullEmbeddings{},
		LLM:        NullLLM{},
		Store:      NullStore{},
	}
}

// FillNulls replaces any nil adapter with its null object.
func (s Set) FillNulls() Set {
	if s.Corpus == nil {
		s.Corpus = NullCorpus{}
	}
	if s.Embeddings == nil {
		s.Embeddings = NullEmbeddings{}
	}
	if s.LLM == nil {
		s.LLM = NullLLM{}
	}
	if s.Store == nil {
		s.Store = NullStore{}
	}
	return s
}

// NullCorpus is the corpus adapter used when no database is configured.
type NullCorpus struct{}

func (NullCorpus) SearchByVector(context.Context, []float32, int, float64) ([]models.VerseRecord, error) {
	return nil, ErrUnavailable
}

func (NullCorpus) SearchByText(context.Context, string, int) ([]models.VerseRecord, error) {
	return nil, ErrUnavailable
}

func (NullCorpus) FetchExegesisFor(context.Context, []int) (map[int][]models.TafseerEntry, error) {
	return nil, ErrUnavailable
}

// NullEmbeddings forces quran_rag onto text-only search.
type NullEmbeddings struct{}

func (NullEmbeddings) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrUnavailable
}

// NullLLM makes every stage take its static mock path.
type NullLLM struct{}

func (NullLLM) Complete(context.Context, string, string, int, float64) (string, error) {
	return "", ErrUnavailable
}

func (NullLLM) StreamComplete(context.Context, string, string, int, float64) (<-chan string, error) {
	return nil, ErrUnavailable
}

// NullStore drops discoveries; the terminal payload simply carries no
// discovery_id.
type NullStore struct{}

func (NullStore) Save(context.Context, models.Discovery) (string, error) {
	return "", ErrUnavailable
}

func (NullStore) List(context.Context, string, int) ([]models.Discovery, error) {
	return nil, ErrUnavailable
}
