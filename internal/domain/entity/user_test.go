package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser_DefaultState(t *testing.T) {
	u := NewUser(1, 10)
	require.Equal(t, StateMainMenu, u.State)
	require.Equal(t, ModePredict, u.Mode)
	require.Equal(t, ReviewUnreviewed, u.Review.State)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, int64(10), u.ChatID)
	require.False(t, u.CanSubmit())
}

func TestUser_SelectImageDiscardsStaleResult(t *testing.T) {
	u := NewUser(1, 10)
	first := &ImageAsset{Name: "first.jpg", MimeType: "image/jpeg", Size: 10}
	require.NoError(t, u.SelectImage(first))
	gen := u.Generation

	u.Result = &PredictionResult{PredictedLabel: "pizza", Image: first}
	u.Review.State = ReviewResolvedCorrect

	second := &ImageAsset{Name: "second.png", MimeType: "image/png", Size: 10}
	require.NoError(t, u.SelectImage(second))
	require.Nil(t, u.Result)
	require.Equal(t, ReviewUnreviewed, u.Review.State)
	require.Same(t, second, u.Image)
	require.Greater(t, u.Generation, gen)
}

func TestUser_InvalidImageKeepsPreviousState(t *testing.T) {
	u := NewUser(1, 10)
	good := &ImageAsset{Name: "a.jpg", Size: 10}
	require.NoError(t, u.SelectImage(good))
	u.Result = &PredictionResult{PredictedLabel: "sushi"}

	err := u.SelectImage(&ImageAsset{Name: "a.pdf", MimeType: "application/pdf", Size: 10})
	require.Error(t, err)
	require.NotEmpty(t, u.ImageError)
	require.Same(t, good, u.Image)
	require.NotNil(t, u.Result)

	require.NoError(t, u.SelectImage(nil))
	require.Same(t, good, u.Image)
}

func TestUser_SwitchModeIsPure(t *testing.T) {
	u := NewUser(1, 10)
	u.Labels = []Label{{ID: 1, Name: "pizza"}}
	u.SwitchMode(ModeAdd)
	require.Equal(t, ModeAdd, u.Mode)
	require.True(t, u.LabelsLoaded())

	gen := u.Generation
	u.SwitchMode(ModeAdd)
	require.Equal(t, gen, u.Generation)
}

func TestUser_SnapshotIsDetached(t *testing.T) {
	u := NewUser(1, 10)
	u.Labels = []Label{{ID: 1, Name: "pizza"}}
	u.Editor = NewEditorSession(42, "", &FeedbackRecord{ID: 42}, nil)

	s := u.Snapshot()
	s.Labels[0].Name = "changed"
	s.Editor.Busy = true
	s.Editor.Record.ID = 7

	require.Equal(t, "pizza", u.Labels[0].Name)
	require.False(t, u.Editor.Busy)
	require.Equal(t, int64(42), u.Editor.Record.ID)
}
