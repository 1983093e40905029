package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"studentperf/domain/core"
	"studentperf/domain/model"
)

// studentColumn maps a student field to the headers it may appear under.
// The second header is the one used by admission office exports.
type studentColumn struct {
	field   string
	headers []string
}

var studentColumns = []studentColumn{
	{"full_name", []string{"full_name", "ФИО"}},
	{"math_score", []string{"math_score", "балл по Математике"}},
	{"russian_score", []string{"russian_score", "балл по Русскому"}},
	{"ege_score", []string{"ege_score", "сумма баллов ЕГЭ"}},
	{"session_1_passed", []string{"session_1_passed", "1 сессия"}},
	{"session_2_passed", []string{"session_2_passed", "2 сессия"}},
	{"session_3_passed", []string{"session_3_passed", "3 сессия"}},
	{"session_4_passed", []string{"session_4_passed", "4 сессия"}},
}

// ParseStudents converts sheet rows into students of a direction. Session
// columns hold the number of exams passed; a student passed a session when
// they reached the column maximum. A column of true/false cells is taken
// as is.
func ParseStudents(data *ExcelData, direction core.DirectionID) ([]model.Student, error) {
	headers := make(map[string]string, len(studentColumns))
	var missing []string
	for _, col := range studentColumns {
		for _, h := range col.headers {
			if data.Has(h) {
				headers[col.field] = h
				break
			}
		}
		if _, ok := headers[col.field]; !ok {
			missing = append(missing, col.headers[len(col.headers)-1])
		}
	}
	if len(missing) > 0 {
		return nil, core.NewTrainingDataError("missing columns: " + strings.Join(missing, ", "))
	}

	sessions := []string{"session_1_passed", "session_2_passed", "session_3_passed", "session_4_passed"}
	values := make(map[string][]float64, len(sessions))
	maxima := make(map[string]float64, len(sessions))
	for _, field := range sessions {
		col := make([]float64, len(data.Rows))
		max := math.Inf(-1)
		boolean := true
		for i, row := range data.Rows {
			v, isBool, err := parseSession(row[headers[field]])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i+2, headers[field], err)
			}
			col[i] = v
			max = math.Max(max, v)
			boolean = boolean && isBool
		}
		if boolean {
			max = 1
		}
		values[field], maxima[field] = col, max
	}

	students := make([]model.Student, len(data.Rows))
	for i, row := range data.Rows {
		scores := make([]int, 3)
		for j, field := range []string{"math_score", "russian_score", "ege_score"} {
			v, err := parseScore(row[headers[field]])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i+2, headers[field], err)
			}
			scores[j] = v
		}
		passed := func(field string) bool { return values[field][i] == maxima[field] }
		students[i] = model.Student{
			FullName:       row[headers["full_name"]],
			MathScore:      scores[0],
			RussianScore:   scores[1],
			EgeScore:       scores[2],
			Session1Passed: passed("session_1_passed"),
			Session2Passed: passed("session_2_passed"),
			Session3Passed: passed("session_3_passed"),
			Session4Passed: passed("session_4_passed"),
			DirectionID:    direction,
		}
	}
	return students, nil
}

func parseScore(s string) (int, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid score %q", s)
	}
	return int(math.Round(v)), nil
}

func parseSession(s string) (v float64, isBool bool, err error) {
	switch strings.ToLower(s) {
	case "true":
		return 1, true, nil
	case "false":
		return 0, true, nil
	case "":
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid session value %q", s)
	}
	return v, false, nil
}
