package agent

import "github.com/quranlabs/tadabbur/pkg/models"

// Static fallback data used when every external collaborator is absent.
// The water verse (21:30) anchors the mocked run so downstream stages and
// end-to-end tests always have at least one verse to work with.

func mockWaterVerses() []models.VerseRecord {
	return []models.VerseRecord{
		{
			SurahNumber: 21,
			VerseNumber: 30,
			VerseKey:    "21:30",
			TextUthmani: "أَوَلَمْ يَرَ الَّذِينَ كَفَرُوا أَنَّ السَّمَاوَاتِ وَالْأَرْضَ " +
				"كَانَتَا رَتْقًا فَفَتَقْنَاهُمَا وَجَعَلْنَا مِنَ الْمَاءِ كُلَّ شَيْءٍ حَيٍّ",
			TextSimple: "أولم ير الذين كفروا أن السماوات والأرض كانتا رتقا " +
				"ففتقناهما وجعلنا من الماء كل شيء حي",
		},
	}
}

func mockLinguistic() *models.LinguisticAnalysis {
	return &models.LinguisticAnalysis{
		Roots: []string{"ج ع ل", "م و ه", "ح ي ي"},
		Morphology: map[string]string{
			"جعلنا": "فعل ماضٍ مسند إلى ضمير العظمة",
			"الماء": "اسم جنس معرف بأل",
			"حي":    "صفة مشبهة",
		},
		RhetoricalDevices: []string{"الاستفهام الإنكاري", "التقديم والتأخير"},
		Summary:           "تحليل لغوي تمهيدي: الجَعل تصيير وتحويل، والماء أصل مادي للحياة.",
	}
}

func mockScienceFindings(disciplines []string) []models.Finding {
	findings := make([]models.Finding, 0, len(disciplines))
	for _, d := range disciplines {
		findings = append(findings, models.Finding{
			VerseKey:       "21:30",
			Discipline:     d,
			Claim:          "الآية تربط الماء بأصل كل كائن حي، وهو ما يتقاطع مع الدور المركزي للماء في الكيمياء الحيوية",
			Evidence:       "الماء مكوّن أساسي في كل الخلايا الحية المعروفة",
			MainObjection:  "المعرفة بأهمية الماء للحياة كانت متاحة قبل الإسلام ولا تشكل دليلاً حصرياً",
			ConfidenceTier: models.TierTwo,
		})
	}
	return findings
}

func mockHumanitiesFindings(disciplines []string) []models.Finding {
	findings := make([]models.Finding, 0, len(disciplines))
	for _, d := range disciplines {
		findings = append(findings, models.Finding{
			VerseKey:        "21:30",
			Discipline:      d,
			Claim:           "التأمل في أصل الحياة يرتبط بأثر نفسي من الطمأنينة والتواضع المعرفي",
			CorrelationType: "parallel",
			HonestyNote:     "ارتباط تأملي عام وليس استدلالاً تجريبياً قابلاً للقياس",
		})
	}
	return findings
}

func mockTafseerFindings() *models.TafseerFindings {
	return &models.TafseerFindings{
		ConsensusView: "اتفق المفسرون على أن الماء أصل الحياة كما جاء في " +
			"قوله تعالى «وجعلنا من الماء كل شيء حي»، " +
			"والمراد بالماء هنا الماء المعروف عند جمهور المفسرين",
		Differences: []models.TafseerDifference{
			{
				VerseKey: "21:30",
				Scholar:  "الرازي",
				Opinion:  "الماء هنا يشمل المني والماء المعروف، وهو أعم من تفسير ابن كثير",
				Evidence: "التفسير الكبير، الجزء 22",
			},
			{
				VerseKey: "21:30",
				Scholar:  "القرطبي",
				Opinion:  "المراد: كل حيوان خُلق من الماء، وهذا يشمل الملائكة عند بعضهم",
				Evidence: "الجامع لأحكام القرآن",
			},
		},
		ShaarawyNote: "الشعراوي يلفت النظر إلى دقة استخدام «جعلنا» بدل «خلقنا»: " +
			"فالجَعل يتضمن التحويل والتصيير، أي أن الله حوّل الماء " +
			"إلى كائنات حية، بينما الخَلق هو الإيجاد من العدم. " +
			"هذا الفرق اللغوي الدقيق يُظهر أن الماء مادة خام " +
			"تحوّلت إلى حياة وليس أن الحياة خُلقت من لا شيء.",
		Details: []models.TafseerDetail{
			{
				VerseKey: "21:30",
				Tafseers: map[string]string{
					"ibn_kathir": "جعلنا من الماء كل شيء حي: أي أصل كل الأحياء من الماء",
					"tabari":     "كل ما فيه روح فأصله من الماء",
					"shaarawy":   "الجَعل هنا تصيير وتحويل لا خَلق من عدم",
					"razi":       "يشمل الماء والمني وكل سائل حيوي",
					"saadi":      "دليل على قدرة الله في جعل الحياة من مادة واحدة",
					"ibn_ashour": "الماء هو العنصر الأساسي المشترك في كل الكائنات",
					"qurtubi":    "فيه دلالة على وجوب شكر نعمة الماء",
				},
			},
		},
	}
}

func mockSynthesis() string {
	return "توليف بحثي أولي: تجتمع التحليلات اللغوية والتفسيرية والعلمية على أن " +
		"الآية تقدم الماء أصلاً مادياً للحياة. الارتباط العلمي هنا متقاطع لكنه غير حصري، " +
		"إذ كانت أهمية الماء معروفة قبل الإسلام، لذا يُصنَّف الارتباط ضمن tier_2 " +
		"مع إثبات الاعتراضات بجانب كل ادعاء."
}
