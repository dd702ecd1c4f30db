package agent

import (
	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// RegisterStages wires all nine stages into the registry with the given
// adapter set.
func RegisterStages(reg *engine.Registry, svcs services.Set) {
	reg.MustRegister(NewRouterStage(svcs.LLM))
	reg.MustRegister(NewQuranRAGStage(svcs.Corpus, svcs.Embeddings, svcs.LLM))
	reg.MustRegister(NewLinguisticStage(svcs.LLM))
	reg.MustRegister(NewScienceStage(svcs.LLM))
	reg.MustRegister(NewTafseerStage(svcs.Corpus, svcs.LLM))
	reg.MustRegister(NewHumanitiesStage(svcs.LLM))
	reg.MustRegister(NewSynthesisStage(svcs.LLM))
	reg.MustRegister(NewQualityStage(svcs.LLM))
	reg.MustRegister(NewKGUpdateStage())
}
