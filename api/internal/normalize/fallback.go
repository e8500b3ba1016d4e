package normalize

import "paper-pal/api/internal/paper/types"

// Fallbacks are built on every call so callers may modify what they get.

func SummaryFallback() types.SummaryResult {
	return types.SummaryResult{
		Title:             "Research Paper",
		Authors:           "Authors",
		Abstract:          "Abstract extracted from the paper.",
		SimplifiedSummary: "This paper presents important findings in the field.",
		KeyPoints: []string{
			"Key finding 1",
			"Key finding 2",
			"Key finding 3",
			"Key finding 4",
		},
		Figures: []types.Figure{{
			ID:          1,
			Title:       "Main Concept",
			Description: "Visual representation of the main concept",
			URL:         "https://via.placeholder.com/400x300/3B82F6/FFFFFF?text=Main+Concept",
		}},
		DeepDive: types.DeepDive{
			Methodology:      "The research employs systematic analysis and experimental validation to establish its findings.",
			Results:          "The study demonstrates significant improvements in the target domain with supporting evidence.",
			Implications:     "These findings have important implications for future research and practical applications.",
			TechnicalDetails: "The research introduces innovative approaches and technical solutions to address the problem domain.",
			Context:          "This work builds upon existing literature and addresses important gaps in current understanding.",
		},
	}
}

func QuizFallback() types.QuizResult {
	answer := 3
	return types.QuizResult{Questions: []types.QuizQuestion{
		{
			ID:       1,
			Type:     types.QuestionMultipleChoice,
			Question: "What is the main contribution of this research?",
			Options: []string{
				"Improved methodology",
				"New theoretical framework",
				"Better experimental design",
				"All of the above",
			},
			CorrectAnswer: &answer,
			Explanation:   "The research contributes across multiple dimensions.",
		},
		{
			ID:              2,
			Type:            types.QuestionText,
			Question:        "Explain the key methodology used in this research.",
			CorrectKeywords: []string{"method", "approach", "technique", "process"},
			Explanation:     "The methodology involves systematic data collection and analysis.",
		},
	}}
}

func ApplicationsFallback() types.ApplicationsResult {
	return types.ApplicationsResult{Applications: types.Applications{
		ProjectIdeas: []string{
			"Build a proof-of-concept implementation",
			"Create a visualization tool for the concepts",
			"Develop a comparison framework",
		},
		IndustryApplications: []string{
			"Apply to real-world problem domain",
			"Integrate with existing systems",
			"Scale for production use",
		},
		ResearchDirections: []string{
			"Extend the methodology",
			"Apply to different domains",
			"Improve efficiency and performance",
		},
		BlogTopics: []string{
			"Understanding the key concepts",
			"Practical implementation guide",
			"Future implications and trends",
		},
	}}
}
