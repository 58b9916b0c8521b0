package social

import (
	"context"
	"testing"

	"github.com/linguamate/server/model"
	"github.com/linguamate/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func seedMember(t *testing.T, db *gorm.DB, username string, age int, gender string) int64 {
	t.Helper()
	m := &model.Member{
		Username: username,
		Nickname: username,
		Age:      age,
		Gender:   gender,
		Status:   1,
	}
	require.NoError(t, db.Create(m).Error)
	return m.ID
}

func seedHobbies(t *testing.T, db *gorm.DB, memberID int64, hobbies ...string) {
	t.Helper()
	for _, h := range hobbies {
		require.NoError(t, db.Create(&model.MemberHobby{MemberID: memberID, Hobby: h}).Error)
	}
}

func seedLanguages(t *testing.T, db *gorm.DB, memberID int64, kind string, languages ...string) {
	t.Helper()
	for _, l := range languages {
		require.NoError(t, db.Create(&model.MemberLanguage{
			MemberID: memberID, Kind: kind, Language: l,
		}).Error)
	}
}

func friendshipRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Friendship{}).Count(&n).Error)
	return n
}

func TestAddFriendship_CreatesBothDirections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewFriendshipService(db, nop())
	a := seedMember(t, db, "alice", 25, model.GenderFemale)
	b := seedMember(t, db, "bob", 30, model.GenderMale)

	require.NoError(t, svc.AddFriendship(context.Background(), a, b))

	ok, err := svc.AreFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.AreFriends(context.Background(), b, a)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), friendshipRows(t, db))
}

func TestAddFriendship_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewFriendshipService(db, nop())
	a := seedMember(t, db, "alice", 25, model.GenderFemale)
	b := seedMember(t, db, "bob", 30, model.GenderMale)

	require.NoError(t, svc.AddFriendship(context.Background(), a, b))
	require.NoError(t, svc.AddFriendship(context.Background(), a, b))
	assert.Equal(t, int64(2), friendshipRows(t, db))
}

func TestAddFriendship_RepairsHalfPair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewFriendshipService(db, nop())
	a := seedMember(t, db, "alice", 25, model.GenderFemale)
	b := seedMember(t, db, "bob", 30, model.GenderMale)

	// One-sided row, as if a past write was interrupted.
	require.NoError(t, db.Create(&model.Friendship{FromMemberID: a, ToMemberID: b}).Error)

	ok, err := svc.AreFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.False(t, ok, "half pair must not count as friends")

	require.NoError(t, svc.AddFriendship(context.Background(), a, b))
	ok, err = svc.AreFriends(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), friendshipRows(t, db))
}

func TestAddFriendship_Self(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewFriendshipService(db, nop())
	a := seedMember(t, db, "alice", 25, model.GenderFemale)

	err := svc.AddFriendship(context.Background(), a, a)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRemoveFriendship_DeletesBothDirections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewFriendshipService(db, nop())
	a := seedMember(t, db, "alice", 25, model.GenderFemale)
	b := seedMember(t, db, "bob", 30, model.GenderMale)
	require.NoError(t, svc.AddFriendship(context.Background(), a, b))

	require.NoError(t, svc.RemoveFriendship(context.Background(), a, b))
	assert.Equal(t, int64(0), friendshipRows(t, db))
}

func TestRemoveFriendship_NotFriends(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewFriendshipService(db, nop())
	a := seedMember(t, db, "alice", 25, model.GenderFemale)
	b := seedMember(t, db, "bob", 30, model.GenderMale)

	err := svc.RemoveFriendship(context.Background(), a, b)
	assert.ErrorIs(t, err, ErrNotFriends)
}

func TestFriendIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewFriendshipService(db, nop())
	a := seedMember(t, db, "alice", 25, model.GenderFemale)
	b := seedMember(t, db, "bob", 30, model.GenderMale)
	c := seedMember(t, db, "carol", 28, model.GenderFemale)
	require.NoError(t, svc.AddFriendship(context.Background(), a, b))
	require.NoError(t, svc.AddFriendship(context.Background(), a, c))

	ids, err := svc.FriendIDs(context.Background(), a)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{b, c}, ids)
}

func TestListFriends_FilterAndPaging(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewFriendshipService(db, nop())
	a := seedMember(t, db, "alice", 25, model.GenderFemale)
	b := seedMember(t, db, "bob", 30, model.GenderMale)
	c := seedMember(t, db, "carol", 28, model.GenderFemale)
	d := seedMember(t, db, "dave", 35, model.GenderMale)
	for _, id := range []int64{b, c, d} {
		require.NoError(t, svc.AddFriendship(context.Background(), a, id))
	}
	seedHobbies(t, db, b, "chess")
	seedHobbies(t, db, c, "chess")

	friends, total, err := svc.ListFriends(context.Background(), a, Filter{Hobby: "chess"}, Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, friends, 2)
	assert.Equal(t, b, friends[0].ID)
	assert.Equal(t, c, friends[1].ID)

	// Page size 1: second page holds the second match.
	friends, total, err = svc.ListFriends(context.Background(), a, Filter{Hobby: "chess"}, Page{Index: 1, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, friends, 1)
	assert.Equal(t, c, friends[0].ID)
}
