package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackPublicDropsAnonymousAuthors(t *testing.T) {
	author, other := "u1", "u2"
	f := &Feedback{
		ID: "root", UserID: &author, IsAnonymous: true,
		Replies: []*Feedback{{ID: "reply", UserID: &other}},
	}

	pub := f.Public()
	assert.Nil(t, pub.UserID)
	require.Len(t, pub.Replies, 1)
	require.NotNil(t, pub.Replies[0].UserID)
	assert.Equal(t, "u2", *pub.Replies[0].UserID)
	assert.NotNil(t, pub.Replies[0].Replies)

	assert.Equal(t, &author, f.UserID, "original keeps its author")
}
