package drive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"comicsort/pkg/models"
)

type fakeMover struct {
	failOn string
	moved  []string
}

func (m *fakeMover) Move(ctx context.Context, fileID, parentID string) error {
	if fileID == m.failOn {
		return errors.New("forbidden")
	}
	m.moved = append(m.moved, fileID+"->"+parentID)
	return nil
}

func TestExecuteMoves_All(t *testing.T) {
	m := &fakeMover{}
	var seen int
	n, err := ExecuteMoves(context.Background(), m, []models.FinalMapping{
		{FileID: "f1", DestinationID: "d1"},
		{FileID: "f2", DestinationID: "d2"},
	}, func(models.FinalMapping) { seen++ })

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, seen)
	assert.Equal(t, []string{"f1->d1", "f2->d2"}, m.moved)
}

func TestExecuteMoves_StopsOnFirstError(t *testing.T) {
	m := &fakeMover{failOn: "f2"}
	n, err := ExecuteMoves(context.Background(), m, []models.FinalMapping{
		{FileID: "f1", DestinationID: "d1"},
		{FileID: "f2", DestinationID: "d2"},
		{FileID: "f3", DestinationID: "d3"},
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"f1->d1"}, m.moved)

	var me *MoveError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 1, me.Index)
	assert.Equal(t, "f2", me.FileID)
	assert.EqualError(t, errors.Unwrap(err), "forbidden")
}
