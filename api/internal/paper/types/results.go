package types

// Figure is a suggested illustration for the paper.
type Figure struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type DeepDive struct {
	Methodology      string `json:"methodology"`
	Results          string `json:"results"`
	Implications     string `json:"implications"`
	TechnicalDetails string `json:"technicalDetails"`
	Context          string `json:"context"`
}

// SummaryResult is the response of generate-content.
type SummaryResult struct {
	Title             string   `json:"title"`
	Authors           string   `json:"authors"`
	Abstract          string   `json:"abstract"`
	SimplifiedSummary string   `json:"simplifiedSummary"`
	KeyPoints         []string `json:"keyPoints"`
	Figures           []Figure `json:"figures"`
	DeepDive          DeepDive `json:"deepDive"`
}

const (
	QuestionMultipleChoice = "multiple-choice"
	QuestionText           = "text"
)

// QuizQuestion is either multiple-choice (Options + CorrectAnswer) or
// free text (CorrectKeywords).
type QuizQuestion struct {
	ID              int      `json:"id"`
	Type            string   `json:"type"`
	Question        string   `json:"question"`
	Options         []string `json:"options,omitempty"`
	CorrectAnswer   *int     `json:"correctAnswer,omitempty"`
	CorrectKeywords []string `json:"correctKeywords,omitempty"`
	Explanation     string   `json:"explanation"`
}

// QuizResult is the response of generate-quiz.
type QuizResult struct {
	Questions []QuizQuestion `json:"questions"`
}

type Applications struct {
	ProjectIdeas         []string `json:"projectIdeas"`
	IndustryApplications []string `json:"industryApplications"`
	ResearchDirections   []string `json:"researchDirections"`
	BlogTopics           []string `json:"blogTopics"`
}

// ApplicationsResult is the response of generate-applications.
type ApplicationsResult struct {
	Applications Applications `json:"applications"`
}

// ImagesResult is the response of fetch-images.
type ImagesResult struct {
	Images []string `json:"images"`
}

// ExtractResult is the response of extract-text.
type ExtractResult struct {
	Text  string `json:"text"`
	Pages int    `json:"pages"`
	Words int    `json:"words"`
}
