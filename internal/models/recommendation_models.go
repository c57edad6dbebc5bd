package models

type RecommendationResult struct {
	Item            ContentItem  `json:"item"`
	Score           float64      `json:"score"`
	MatchedCategory MoodCategory `json:"matched_category"`
	Confidence      float64      `json:"confidence"`
	MatchedTags     []string     `json:"matched_tags"`
	Rationale       string       `json:"rationale"`
}

type SimilarResult struct {
	Item       ContentItem `json:"item"`
	Similarity float64     `json:"similarity"`
	Rationale  string      `json:"rationale"`
}

type RecommendationResponse struct {
	Analysis        MoodAnalysisResult     `json:"mood_analysis"`
	Recommendations []RecommendationResult `json:"recommendations"`
	Total           int                    `json:"total_recommendations"`
}

// RecommendationRequest is the message consumed from the requests topic.
// Exactly one of MoodText and MoodCategory should be set.
type RecommendationRequest struct {
	RequestID    string `json:"request_id"`
	UserID       string `json:"user_id"`
	MoodText     string `json:"mood_text,omitempty"`
	MoodCategory string `json:"mood_category,omitempty"`
	Limit        int    `json:"limit"`
}

type RecommendationReply struct {
	RequestID string                  `json:"request_id"`
	UserID    string                  `json:"user_id"`
	Response  *RecommendationResponse `json:"response,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// RecommendationRecord is one served recommendation as kept in the history
// table. The sort key orders a user's history by time.
type RecommendationRecord struct {
	UserID       string       `json:"user_id" dynamodbav:"user_id"`
	SortKey      string       `json:"sk" dynamodbav:"sk"`
	RequestID    string       `json:"request_id" dynamodbav:"request_id"`
	ItemID       string       `json:"item_id" dynamodbav:"item_id"`
	Title        string       `json:"title" dynamodbav:"title"`
	Score        float64      `json:"score" dynamodbav:"score"`
	MoodCategory MoodCategory `json:"mood_category" dynamodbav:"mood_category"`
	Confidence   float64      `json:"confidence" dynamodbav:"confidence"`
	Rationale    string       `json:"rationale" dynamodbav:"rationale"`
	CreatedAt    int64        `json:"created_at" dynamodbav:"created_at"`
}
