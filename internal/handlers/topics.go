package handlers

import (
	"net/http"
	"strings"

	"udan-bangla-backend/internal/catalog"
	"udan-bangla-backend/internal/services"
)

// ListTopics serves the topic catalogue, optionally narrowed by ?class=.
func ListTopics(w http.ResponseWriter, r *http.Request) {
	class := strings.TrimSpace(r.URL.Query().Get("class"))
	if !catalog.ValidClass(class) {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"class": "Class must be 8-12 or WBJEE"}, r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"class":  class,
		"topics": catalog.TopicsFor(class),
	})
}

func ListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"plans": services.Plans()})
}
