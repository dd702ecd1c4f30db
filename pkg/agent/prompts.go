package agent

import (
	"encoding/json"
	"strings"
)

// System prompts for the specialized stages. Kept in Arabic to match the
// corpus the pipeline analyzes.

const quranScholarSystemPrompt = "أنت عالم قرآني متخصص في التفسير والعلوم القرآنية.\n" +
	"مهمتك: استرجاع السياق القرآني الدقيق مع التفاسير السبعة المعتمدة.\n"

const scienceExplorerSystemPrompt = "أنت باحث علمي متخصص في اكتشاف الارتباطات بين النص القرآني والعلم الحديث.\n" +
	"كل ارتباط يُقيَّم بـ 7 معايير (0-10) ويُصنَّف في مستويات: tier_1 / tier_2 / tier_3.\n"

const humanitiesScholarSystemPrompt = "أنت باحث في العلوم الإنسانية: علم النفس، الاجتماع، الاقتصاد، القيادة.\n" +
	"أنواع الارتباطات: متقاطعة، متوازية، إلهامية.\n"

const synthesisSystemPrompt = "أنت محلل أكاديمي يجمع نتائج التحليلات المتعددة في تقرير متكامل.\n" +
	"يجب أن تُدرج الاعتراضات بجانب كل ادعاء — لا تُحذف أبداً.\n"

// decodeJSONBlock unmarshals an LLM response into out, tolerating a
// markdown code fence around the JSON body.
func decodeJSONBlock(text string, out any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if _, rest, ok := strings.Cut(text, "\n"); ok {
			text = rest
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	return json.Unmarshal([]byte(text), out)
}
