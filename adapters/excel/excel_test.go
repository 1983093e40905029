package excel

import (
	"os"
	"path/filepath"
	"testing"

	"studentperf/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeSheet(t *testing.T, sheet string, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "cohort.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestReadAndParse_AdmissionExport(t *testing.T) {
	path := writeSheet(t, "Applied Informatics", [][]any{
		{"ФИО", "балл по Математике", "балл по Русскому", "сумма баллов ЕГЭ", "1 сессия", "2 сессия", "3 сессия", "4 сессия"},
		{"Ivanova A.", 78, 81, 240, 5, 4, 5, 3},
		{"Petrov B.", 55, 62, 180, 3, 4, 2, 3},
		{},
		{"Sidorov C.", 90, 70, 251, 5, 2, 5, 1},
	})

	r := NewDataReader(path)
	sheets, err := r.Sheets()
	require.NoError(t, err)
	assert.Equal(t, []string{"Applied Informatics"}, sheets)

	data, err := r.ReadData("")
	require.NoError(t, err)
	require.Len(t, data.Rows, 3)

	students, err := ParseStudents(data, core.DirectionID(4))
	require.NoError(t, err)
	require.Len(t, students, 3)

	assert.Equal(t, "Ivanova A.", students[0].FullName)
	assert.Equal(t, 78, students[0].MathScore)
	assert.Equal(t, 240, students[0].EgeScore)
	assert.Equal(t, core.DirectionID(4), students[0].DirectionID)

	// passed means reaching the column maximum
	assert.True(t, students[0].Session1Passed)
	assert.False(t, students[1].Session1Passed)
	assert.True(t, students[0].Session2Passed)
	assert.True(t, students[1].Session2Passed)
	assert.False(t, students[2].Session2Passed)
	assert.True(t, students[1].Session4Passed)
	assert.False(t, students[2].Session4Passed)
}

func TestReadAndParse_CSVWithBooleans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cohort.csv")
	csv := "full_name,math_score,russian_score,ege_score,session_1_passed,session_2_passed,session_3_passed,session_4_passed\n" +
		"A,70.4,65,200,true,false,false,false\n" +
		"B,50,60,170,false,false,true,false\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	data, err := NewDataReader(path).ReadData("ignored")
	require.NoError(t, err)
	students, err := ParseStudents(data, 1)
	require.NoError(t, err)
	require.Len(t, students, 2)

	assert.Equal(t, 70, students[0].MathScore)
	assert.True(t, students[0].Session1Passed)
	assert.False(t, students[1].Session1Passed)
	// an all-false column stays false
	assert.False(t, students[0].Session4Passed)
	assert.False(t, students[1].Session4Passed)
}

func TestParseStudents_MissingColumns(t *testing.T) {
	data := &ExcelData{Headers: []string{"ФИО", "балл по Математике"}, Rows: []RawRowData{{"ФИО": "A"}}}
	_, err := ParseStudents(data, 1)
	assert.ErrorIs(t, err, core.ErrInvalidTrainingData)
	assert.Contains(t, err.Error(), "4 сессия")
}

func TestParseStudents_BadScore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	csv := "full_name,math_score,russian_score,ege_score,session_1_passed,session_2_passed,session_3_passed,session_4_passed\n" +
		"A,seventy,65,200,1,1,1,1\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	data, err := NewDataReader(path).ReadData("")
	require.NoError(t, err)

	_, err = ParseStudents(data, 1)
	assert.ErrorContains(t, err, `row 2 column "math_score"`)
}

func TestReadData_MissingFile(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "none.xlsx")).ReadData("")
	assert.ErrorContains(t, err, "not found")
}
