package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"udan-bangla-backend/internal/models"
	"udan-bangla-backend/internal/quiz"
)

const (
	defaultExplanation = "No explanation provided."
	csvMinColumns      = 6
)

// ImportReport summarizes a CSV parse: the usable questions and how many data
// rows were dropped.
type ImportReport struct {
	Questions []models.Question
	Skipped   int
}

// ParseQuestionCSV reads rows of
//
//	question, option1, option2, option3, option4, answerIndex[, explanation]
//
// with standard CSV quoting. A first row whose first cell starts with
// "question" is treated as a header. Rows with fewer than six columns, or
// that fail question validation, are skipped. A non-numeric answer index
// reads as 0.
func ParseQuestionCSV(r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	report := &ImportReport{}
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"csv": fmt.Sprintf("Malformed CSV: %v", err)}}
		}

		if first {
			first = false
			if len(record) > 0 && strings.HasPrefix(strings.ToLower(strings.TrimSpace(record[0])), "question") {
				continue
			}
		}

		if len(record) < csvMinColumns {
			report.Skipped++
			continue
		}

		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}

		answer, err := strconv.Atoi(record[5])
		if err != nil {
			answer = 0
		}

		q := models.Question{
			Text:         record[0],
			Options:      []string{record[1], record[2], record[3], record[4]},
			CorrectIndex: answer,
		}
		if len(record) > 6 {
			q.Explanation = record[6]
		}

		if hasBlank(q.Options) || quiz.ValidateQuestion(q) != nil {
			report.Skipped++
			continue
		}
		report.Questions = append(report.Questions, q)
	}

	if len(report.Questions) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"csv": "No valid questions found in CSV"}}
	}
	return report, nil
}

// BuildManualQuestion validates an admin-entered question. All four options
// and the stem are required; a blank explanation gets a placeholder.
func BuildManualQuestion(req models.AddQuestionRequest) (models.Question, error) {
	fields := make(map[string]string)

	text := strings.TrimSpace(req.QuestionText)
	if text == "" {
		fields["question_text"] = "Question text is required"
	}

	options := make([]string, len(req.Options))
	for i, o := range req.Options {
		options[i] = strings.TrimSpace(o)
	}
	if len(options) != quiz.OptionCount || hasBlank(options) {
		fields["options"] = fmt.Sprintf("Exactly %d non-empty options are required", quiz.OptionCount)
	}
	if req.CorrectIndex < 0 || req.CorrectIndex >= quiz.OptionCount {
		fields["correct_answer_index"] = fmt.Sprintf("Must be between 0 and %d", quiz.OptionCount-1)
	}

	if len(fields) > 0 {
		return models.Question{}, &ValidationError{Fields: fields}
	}

	explanation := strings.TrimSpace(req.Explanation)
	if explanation == "" {
		explanation = defaultExplanation
	}

	return models.Question{
		Text:         text,
		Options:      options,
		CorrectIndex: req.CorrectIndex,
		Explanation:  explanation,
	}, nil
}

func hasBlank(values []string) bool {
	for _, v := range values {
		if v == "" {
			return true
		}
	}
	return false
}
