package progress

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, u *models.User, ms ...Mutation) {
	t.Helper()
	for _, m := range ms {
		require.NoError(t, m(u))
	}
}

func TestMarkComplete_SortedAndIdempotent(t *testing.T) {
	u := &models.User{}
	apply(t, u, MarkComplete(5), MarkComplete(2), MarkComplete(9))
	assert.Equal(t, []int{2, 5, 9}, u.CompletedPages)

	once := u.Clone()
	apply(t, u, MarkComplete(5))
	assert.Equal(t, once.CompletedPages, u.CompletedPages)
}

func TestMarkComplete_SortsUnsortedInput(t *testing.T) {
	u := &models.User{CompletedPages: []int{4, 1, 3}}
	apply(t, u, MarkComplete(2))
	assert.Equal(t, []int{1, 2, 3, 4}, u.CompletedPages)
}

func TestMarkCompleteThenIncomplete_RestoresSet(t *testing.T) {
	u := &models.User{CompletedPages: []int{1, 4}}
	apply(t, u, MarkComplete(3), MarkIncomplete(3))
	assert.Equal(t, []int{1, 4}, u.CompletedPages)
}

func TestMarkIncomplete_AbsentIsNoop(t *testing.T) {
	u := &models.User{}
	apply(t, u, MarkIncomplete(7))
	assert.Equal(t, []int{}, u.CompletedPages)
}

func TestPageValidation(t *testing.T) {
	for _, m := range []Mutation{MarkComplete(0), MarkIncomplete(-1), UpdateLastViewed(0)} {
		err := m(&models.User{})
		assert.True(t, errors.Is(err, common.ErrorValidation))
		assert.Equal(t, "Page number must be a positive integer", common.MessageOf(err))
	}
}

func TestUpdateLastViewed(t *testing.T) {
	u := &models.User{LastViewedPage: 1}
	apply(t, u, UpdateLastViewed(6))
	assert.Equal(t, 6, u.LastViewedPage)
	apply(t, u, UpdateLastViewed(2))
	assert.Equal(t, 2, u.LastViewedPage)
}

func TestGitHubUsername(t *testing.T) {
	u := &models.User{CompletedPages: []int{3}}
	// the space check runs on the raw value, so padding is rejected
	err := GitHubUsername.Save("  octocat ", false)(u)
	assert.Equal(t, "GitHub username cannot contain spaces", common.MessageOf(err))
	assert.Equal(t, []int{3}, u.CompletedPages)

	// other whitespace passes the check and is trimmed on save
	apply(t, u, GitHubUsername.Save("octocat\t\n", false))
	assert.Equal(t, "octocat", u.GitHubUsername)
	assert.Equal(t, []int{1, 3}, u.CompletedPages)

	err = GitHubUsername.Save("   ", false)(u)
	assert.Equal(t, "GitHub username is required", common.MessageOf(err))

	err = GitHubUsername.Save("octo cat", false)(u)
	assert.Equal(t, "GitHub username cannot contain spaces", common.MessageOf(err))
}

func TestMicrosoftLearnEmail(t *testing.T) {
	u := &models.User{}
	apply(t, u, MicrosoftLearnEmail.Save("Learner@Example.COM", false))
	assert.Equal(t, "learner@example.com", u.MicrosoftLearnEmail)
	assert.Equal(t, []int{2}, u.CompletedPages)

	err := MicrosoftLearnEmail.Save("", false)(u)
	assert.Equal(t, "Email is required", common.MessageOf(err))

	err = MicrosoftLearnEmail.Save("not-an-email", false)(u)
	assert.Equal(t, "Invalid email format", common.MessageOf(err))

	err = MicrosoftLearnEmail.Save(" Me@Learn.com ", false)(u)
	assert.Equal(t, "Invalid email format", common.MessageOf(err))
	assert.Equal(t, "learner@example.com", u.MicrosoftLearnEmail)
}

func TestLinkedField_ClearPreviousLeavesPageComplete(t *testing.T) {
	u := &models.User{CompletedPages: []int{1, 2}}
	apply(t, u, GitHubUsername.Save("octocat", true))
	assert.Equal(t, []int{1, 2}, u.CompletedPages)
}

func TestLinkedField_InvalidLeavesRecordUntouched(t *testing.T) {
	u := &models.User{GitHubUsername: "old", CompletedPages: []int{}}
	require.Error(t, GitHubUsername.Save("bad name", true)(u))
	assert.Equal(t, "old", u.GitHubUsername)
	assert.Empty(t, u.CompletedPages)
}

func TestToggleResource(t *testing.T) {
	u := &models.User{}
	var done bool

	apply(t, u, ToggleResource("r1", &done))
	assert.True(t, done)
	assert.Equal(t, []string{"r1"}, u.CompletedResources)

	apply(t, u, ToggleResource("r1", &done))
	assert.False(t, done)
	assert.Empty(t, u.CompletedResources)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("a@b.com"))
	assert.False(t, IsValidEmail("a@b"))
	assert.False(t, IsValidEmail("a b@c.com"))
	assert.False(t, IsValidEmail("@b.com"))
}
