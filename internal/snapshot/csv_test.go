package snapshot

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicsort/pkg/models"
)

func TestCSV_WriteThenRead(t *testing.T) {
	records := []models.IssueRecord{
		{IssueName: "Batman 1", CoverDate: "March 2020"},
		{IssueName: `Batman, "Special" 2`, CoverDate: "April 2020"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), "Issue Name,Cover Date\n"))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadCSV_LegacyWithExtraColumns(t *testing.T) {
	in := "\ufeffCover Date,Issue Name,Notes\nJanuary 2024, Saga 61 ,x\nFebruary 2024,Saga 62,\n"
	got, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []models.IssueRecord{
		{IssueName: "Saga 61", CoverDate: "January 2024"},
		{IssueName: "Saga 62", CoverDate: "February 2024"},
	}, got)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("Title,Date\nx,y\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("Issue Name,Cover Date\nonly-one\n"))
	assert.Error(t, err)
}

func TestParseCSVFileName(t *testing.T) {
	assert.Equal(t, "123_2024-05-01.csv", CSVFileName("123", "2024-05-01"))

	sid, date, err := ParseCSVFileName("123_2024-05-01.csv")
	require.NoError(t, err)
	assert.Equal(t, "123", sid)
	assert.Equal(t, "2024-05-01", date)

	for _, bad := range []string{"123.csv", "_2024-05-01.csv", "123_2024-05-01.txt", "123_yesterday.csv"} {
		_, _, err := ParseCSVFileName(bad)
		assert.ErrorIs(t, err, ErrBadCSVName, bad)
	}
}
