package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbook(t *testing.T) {
	adm := "10001"
	submitted := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	rows := []Row{
		{
			ReferenceID:     "ADM-2026-QX7P2M", ApplicantName: "Asha Meena", Email: "asha@example.com",
			Phone:           "9000000001", Course: "Class 9", Category: "st", ApplicationStatus: "approved",
			SchoolName:      "GSS Jaipur", Rank: "1st", Outcome: "accepted", IsStudentChoice: true,
			Enrollment:      "enrolled", Payment: "completed", Finalized: true, AccountAllocated: true,
			AdmissionNumber: &adm, SubmittedAt: submitted,
		},
		{
			ReferenceID: "ADM-2026-QX7P2M", ApplicantName: "Asha Meena", SchoolName: "GSS Ajmer",
			Rank:        "2nd", Outcome: "waitlisted", Enrollment: "not_enrolled", Payment: "pending",
			SubmittedAt: submitted,
		},
	}

	data, err := BuildWorkbook(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, Header, got[0])

	first := got[1]
	assert.Equal(t, "ADM-2026-QX7P2M", first[0])
	assert.Equal(t, "GSS Jaipur", first[7])
	assert.Equal(t, "yes", first[10])
	assert.Equal(t, "10001", first[15])
	assert.Equal(t, "2026-04-02 10:30", first[16])

	second := got[2]
	assert.Equal(t, "no", second[13])
	assert.Equal(t, "", second[15])

	panes, err := f.GetPanes(SheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
}

func TestBuildWorkbookEmpty(t *testing.T) {
	data, err := BuildWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "admissions_20260402_103000.xlsx", FileName(time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)))
}
