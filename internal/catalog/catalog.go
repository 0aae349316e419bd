// Package catalog holds the fixed topic list and the exam/class contexts a
// learner can pick before starting a quiz.
package catalog

import (
	"fmt"
	"strconv"

	"udan-bangla-backend/internal/models"
)

// ClassWBJEE selects the engineering-entrance topic set.
const ClassWBJEE = "WBJEE"

var generalTopics = []models.Topic{
	{ID: "wbcs-history", Title: "Bengal History", Description: "Ancient, Medieval, and Modern history of Bengal region.", IconName: "landmark", Color: "text-amber-600"},
	{ID: "wb-geo", Title: "WB Geography", Description: "Rivers, soil, climate, and demographics of West Bengal.", IconName: "map-pin", Color: "text-emerald-600"},
	{ID: "polity", Title: "Indian Polity", Description: "Constitution, Panchayati Raj, and Governance.", IconName: "gavel", Color: "text-blue-600"},
	{ID: "bengali-lit", Title: "Bengali Literature", Description: "Famous authors, poems, and literary eras.", IconName: "book-open", Color: "text-rose-600"},
	{ID: "science", Title: "General Science", Description: "Physics, Chemistry, and Biology basics for competitive exams.", IconName: "flask", Color: "text-violet-600"},
	{ID: "math", Title: "Arithmetic", Description: "Quantitative aptitude and reasoning.", IconName: "calculator", Color: "text-cyan-600"},
}

var wbjeeTopics = []models.Topic{
	{ID: "wbjee-physics", Title: "Physics", Description: "Mechanics, Optics, Electromagnetism, and Modern Physics for Engineering.", IconName: "atom", Color: "text-violet-600"},
	{ID: "wbjee-chemistry", Title: "Chemistry", Description: "Physical, Organic, and Inorganic Chemistry.", IconName: "flask", Color: "text-emerald-600"},
	{ID: "wbjee-math", Title: "Mathematics", Description: "Calculus, Algebra, Coordinate Geometry, and Trigonometry.", IconName: "calculator", Color: "text-blue-600"},
}

var byID = func() map[string]models.Topic {
	m := make(map[string]models.Topic, len(generalTopics)+len(wbjeeTopics))
	for _, t := range generalTopics {
		m[t.ID] = t
	}
	for _, t := range wbjeeTopics {
		m[t.ID] = t
	}
	return m
}()

// ValidClass reports whether class is empty, "WBJEE" or a school class 8-12.
func ValidClass(class string) bool {
	if class == "" || class == ClassWBJEE {
		return true
	}
	n, err := strconv.Atoi(class)
	return err == nil && n >= 8 && n <= 12
}

// TopicsFor returns the topics offered for a class. An empty class returns
// every topic, which is what the admin console lists.
func TopicsFor(class string) []models.Topic {
	var src []models.Topic
	switch class {
	case "":
		src = append(append(src, generalTopics...), wbjeeTopics...)
	case ClassWBJEE:
		src = wbjeeTopics
	default:
		src = generalTopics
	}
	return append([]models.Topic(nil), src...)
}

func Lookup(topicID string) (models.Topic, bool) {
	t, ok := byID[topicID]
	return t, ok
}

// PromptContext describes a topic for question generation, qualified by the
// learner's exam or class.
func PromptContext(topic models.Topic, class string) string {
	switch class {
	case "":
		return topic.Title
	case ClassWBJEE:
		return fmt.Sprintf("%s specifically for WBJEE (West Bengal Joint Entrance Examination) Engineering Entrance", topic.Title)
	default:
		return fmt.Sprintf("%s for Class %s (West Bengal Board)", topic.Title, class)
	}
}

// ExamLabel is the short context shown with a result, e.g. "WBJEE" or
// "Class 11". It returns nil when no class was chosen.
func ExamLabel(class string) *string {
	if class == "" {
		return nil
	}
	label := class
	if class != ClassWBJEE {
		label = "Class " + class
	}
	return &label
}
