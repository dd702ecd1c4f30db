// Package agent implements the nine pipeline stages. Each stage receives
// an immutable state snapshot and returns a partial update touching only
// the fields it owns; external collaborators come in through the services
// interfaces and every stage has a static fallback so a provider outage
// never blocks the run.
package agent

import (
	"context"
	"strings"

	"github.com/quranlabs/tadabbur/pkg/engine"
	"github.com/quranlabs/tadabbur/pkg/models"
	"github.com/quranlabs/tadabbur/pkg/services"
)

// Routing hints.
const (
	RouteScience    = "science"
	RouteHumanities = "humanities"
	RouteTafseer    = "tafseer"
	RouteParallel   = "parallel"
)

// DefaultDisciplines fills an empty disciplines list.
var DefaultDisciplines = []string{"physics", "biology", "psychology"}

// Keyword tables for fast heuristic routing, checked before the LLM
// fallback. Arabic plus the English discipline names.
var scienceKeywords = []string{
	"فيزياء", "كيمياء", "بيولوجيا", "طب", "فلك", "جيولوجيا",
	"علم", "ذرة", "كون", "نجوم", "أرض", "جبال", "بحر",
	"ماء", "نبات", "حيوان", "خلق", "جنين", "رحم",
	"physics", "chemistry", "biology", "medicine", "astronomy",
}

var humanitiesKeywords = []string{
	"نفس", "اجتماع", "اقتصاد", "إدارة", "قيادة", "أخلاق",
	"فلسفة", "سلوك", "مجتمع", "ثروة", "فقر", "عدل", "شورى",
	"صبر", "طمأنينة", "خوف", "رجاء", "توبة", "زكاة",
	"psychology", "sociology", "economics", "management", "ethics",
}

var tafseerKeywords = []string{
	"تفسير", "معنى", "سبب", "نزول", "مكي", "مدني",
	"ناسخ", "منسوخ", "إعراب", "بلاغة", "لغة", "شعراوي",
	"ابن كثير", "طبري", "رازي", "قرطبي", "سعدي",
}

var scienceDisciplines = map[string]bool{
	"physics": true, "chemistry": true, "biology": true,
	"medicine": true, "astronomy": true, "geology": true,
}

var humanitiesDisciplines = map[string]bool{
	"psychology": true, "sociology": true, "economics": true,
	"management": true, "ethics": true, "linguistics": true,
}

// RouterStage fills input defaults and computes the routing hint.
// It never fails: the LLM classifier is an optional refinement and any
// error falls back to the heuristic answer.
type RouterStage struct {
	llm services.LLM
}

func NewRouterStage(llm services.LLM) *RouterStage {
	return &RouterStage{llm: llm}
}

func (s *RouterStage) Name() string { return engine.StageRouteQuery }

func (s *RouterStage) Run(ctx context.Context, state models.DiscoveryState) (models.StateUpdate, error) {
	update := models.StateUpdate{}
	if len(state.Disciplines) == 0 {
		update.Disciplines = &DefaultDisciplines
		state.Disciplines = DefaultDisciplines
	}
	if state.Mode == "" {
		update.Mode = models.Ptr(models.ModeGuided)
		state.Mode = models.ModeGuided
	}
	if state.IterationCount == 0 {
		update.IterationCount = models.Ptr(0)
	}

	route := s.route(ctx, state)
	update.Updates = []models.ProgressRecord{{
		Stage:  engine.StageRouteQuery,
		Status: models.StatusDone,
		Route:  route,
	}}
	return update, nil
}

func (s *RouterStage) route(ctx context.Context, state models.DiscoveryState) string {
	// Autonomous exploration always runs every branch.
	if state.Mode == models.ModeAutonomous || state.Mode == models.ModeCrossDomain {
		return RouteParallel
	}

	if route, ok := routeByDisciplines(state.Disciplines); ok {
		return route
	}

	query := strings.ToLower(state.Query)
	science := countMatches(query, scienceKeywords)
	humanities := countMatches(query, humanitiesKeywords)
	tafseer := countMatches(query, tafseerKeywords)

	if science == 0 && humanities == 0 && tafseer == 0 {
		// No keyword signal at all; ask the classifier before giving up.
		if route, ok := s.routeWithLLM(ctx, state.Query); ok {
			return route
		}
		return RouteParallel
	}

	switch {
	case tafseer > science && tafseer > humanities:
		return RouteTafseer
	case science > humanities && science > tafseer:
		return RouteScience
	case humanities > science && humanities > tafseer:
		return RouteHumanities
	}
	return RouteParallel
}

func routeByDisciplines(disciplines []string) (string, bool) {
	var hasScience, hasHumanities bool
	for _, d := range disciplines {
		if scienceDisciplines[d] {
			hasScience = true
		}
		if humanitiesDisciplines[d] {
			hasHumanities = true
		}
	}
	if hasScience && !hasHumanities {
		return RouteScience, true
	}
	if hasHumanities && !hasScience {
		return RouteHumanities, true
	}
	return "", false
}

func (s *RouterStage) routeWithLLM(ctx context.Context, query string) (string, bool) {
	prompt := "صنّف هذا الاستعلام: «" + query + "»\n\n" +
		"الخيارات:\n" +
		"- science: إذا كان عن علوم طبيعية (فيزياء، بيولوجيا، طب...)\n" +
		"- humanities: إذا كان عن علوم إنسانية (نفس، اجتماع، اقتصاد...)\n" +
		"- tafseer: إذا كان عن تفسير أو لغة أو بلاغة\n" +
		"- parallel: إذا كان عاماً أو يشمل أكثر من تخصص\n\n" +
		`أعد JSON: {"route": "science|humanities|tafseer|parallel"}`

	text, err := s.llm.Complete(ctx, "", prompt, 64, 0.1)
	if err != nil {
		return "", false
	}
	var parsed struct {
		Route string `json:"route"`
	}
	if err := decodeJSONBlock(text, &parsed); err != nil {
		return "", false
	}
	switch parsed.Route {
	case RouteScience, RouteHumanities, RouteTafseer, RouteParallel:
		return parsed.Route, true
	}
	return "", false
}

func countMatches(query string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(query, kw) {
			n++
		}
	}
	return n
}
