package eventstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func writeMinimal(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "users.csv", "\ufeffuser_id,signup_date,channel,region\nU1,2024-01-01,Organic,Europe\n\nU2,2024-01-03,Paid Search,Africa\n")
	writeFile(t, dir, "sessions.csv", "device_type,session_id,user_id,start_time,end_time\nMobile,S1,U1,2024-01-01 10:00:00,2024-01-01 10:30:00\nDesktop,S2,U2,2024-01-04T08:00:00Z,2024-01-04 09:00\n")
	writeFile(t, dir, "feature_usage.csv", "session_id,feature_name,usage_timestamp,extra\nS1,Dashboard,2024-01-01 10:05:00,x\n")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeMinimal(t, dir)
	writeFile(t, dir, "feedback.csv", "feedback_id,user_id,rating,feature_name,comments,session_id\nF1,U1,4.0,Dashboard,\"Great, thanks\",S1\nF2,U2,2,Dashboard,,S2\n")

	ds, err := LoadDir(dir, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, map[string]int{TableUsers: 2, TableSessions: 2, TableUsage: 1, TableFeedback: 2}, ds.Counts())
	assert.Equal(t, User{ID: "U1", SignupDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Channel: "Organic", Region: "Europe"}, ds.Users[0])
	assert.Equal(t, "Mobile", ds.Sessions[0].DeviceType)
	assert.Equal(t, time.Date(2024, 1, 4, 8, 0, 0, 0, time.UTC).Unix(), ds.Sessions[1].StartTime.Unix())
	assert.Equal(t, time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC), ds.Sessions[1].EndTime)
	assert.Equal(t, 4, ds.Feedback[0].Rating)
	assert.Equal(t, "Great, thanks", ds.Feedback[0].Comments)
	assert.Empty(t, ds.Feedback[1].Comments)
	assert.Equal(t, dir, ds.SourceDir)
}

func TestLoadDir_FeedbackOptional(t *testing.T) {
	dir := t.TempDir()
	writeMinimal(t, dir)

	ds, err := LoadDir(dir, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, ds.Feedback)
}

func TestLoadDir_MissingRequiredTable(t *testing.T) {
	dir := t.TempDir()
	writeMinimal(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "sessions.csv")))

	_, err := LoadDir(dir, DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSessions_MissingColumn(t *testing.T) {
	p := writeFile(t, t.TempDir(), "sessions.csv", "session_id,user_id,start_time\nS1,U1,2024-01-01 10:00:00\n")
	_, err := LoadSessions(p, DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "end_time", se.Column)
}

func TestLoadUsage_BadTimestamp(t *testing.T) {
	p := writeFile(t, t.TempDir(), "feature_usage.csv", "session_id,feature_name,usage_timestamp\nS1,Dashboard,2024-01-01 10:00:00\nS2,Search,yesterday\n")
	_, err := LoadUsage(p, DefaultOptions())

	var re *RowError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, TableUsage, re.Table)
	assert.Equal(t, 2, re.Row)
	assert.Equal(t, "usage_timestamp", re.Column)
}

func TestLoadFeedback_BadRating(t *testing.T) {
	p := writeFile(t, t.TempDir(), "feedback.csv", "feedback_id,user_id,rating,feature_name,comments,session_id\nF1,U1,five,X,,S1\n")
	_, err := LoadFeedback(p, DefaultOptions())
	assert.ErrorContains(t, err, "column rating")
}

func TestLoadUsers_HeaderOnly(t *testing.T) {
	p := writeFile(t, t.TempDir(), "users.csv", "user_id,signup_date\n")
	users, err := LoadUsers(p, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestLoadUsage_TSV(t *testing.T) {
	p := writeFile(t, t.TempDir(), "feature_usage.tsv", "session_id\tfeature_name\tusage_timestamp\nS1\tDashboard\t2024-01-01\n")
	events, err := LoadUsage(p, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Dashboard", events[0].Feature)
}
