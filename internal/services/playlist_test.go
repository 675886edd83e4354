package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmonia-app/harmonia-api/internal/models"
)

func TestPlaylistCreate(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, "owner@example.com")
	svc := NewPlaylistService(db)
	ctx := context.Background()

	playlist, err := svc.Create(ctx, user.ID, "Road Trip", "Windows down.", true)
	require.NoError(t, err)
	assert.NotZero(t, playlist.ID)
	assert.Equal(t, user.ID, playlist.OwnerID)
	assert.True(t, playlist.IsPublic)
	assert.False(t, playlist.IsAIGenerated)

	var validationErr *ValidationError
	_, err = svc.Create(ctx, user.ID, "", "", false)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "name", validationErr.Field)
}

func TestPlaylistVisibility(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	viewer := seedUser(t, db, "viewer@example.com")
	svc := NewPlaylistService(db)
	ctx := context.Background()

	private, err := svc.Create(ctx, owner.ID, "Private Mix", "", false)
	require.NoError(t, err)
	public, err := svc.Create(ctx, owner.ID, "Public Mix", "", true)
	require.NoError(t, err)

	// owners always see their own
	_, err = svc.GetVisible(ctx, private.ID, owner.ID)
	require.NoError(t, err)

	// others see public playlists only; private ones read as not found
	_, err = svc.GetVisible(ctx, public.ID, viewer.ID)
	require.NoError(t, err)

	var notFoundErr *NotFoundError
	_, err = svc.GetVisible(ctx, private.ID, viewer.ID)
	require.ErrorAs(t, err, &notFoundErr)
}

func TestPlaylistUpdateOwnershipAndPatch(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	intruder := seedUser(t, db, "intruder@example.com")
	svc := NewPlaylistService(db)
	ctx := context.Background()

	playlist, err := svc.Create(ctx, owner.ID, "Original", "Before.", false)
	require.NoError(t, err)

	newName := "Renamed"
	makePublic := true
	updated, err := svc.Update(ctx, playlist.ID, owner.ID, &newName, nil, &makePublic)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "Before.", updated.Description)
	assert.True(t, updated.IsPublic)

	empty := ""
	var validationErr *ValidationError
	_, err = svc.Update(ctx, playlist.ID, owner.ID, &empty, nil, nil)
	require.ErrorAs(t, err, &validationErr)

	var ownershipErr *OwnershipError
	_, err = svc.Update(ctx, playlist.ID, intruder.ID, &newName, nil, nil)
	require.ErrorAs(t, err, &ownershipErr)
}

func TestPlaylistAddAndRemoveTrack(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	svc := NewPlaylistService(db)
	ctx := context.Background()

	playlist, err := svc.Create(ctx, owner.ID, "Build Up", "", false)
	require.NoError(t, err)

	first := seedCatalogTrack(t, db, "Opener", "rock", []string{"energetic"}, 60)
	second := seedCatalogTrack(t, db, "Middle", "jazz", []string{"calm"}, 50)
	third := seedCatalogTrack(t, db, "Closer", "rock", []string{"uplifting"}, 40)

	for _, track := range []models.Track{first, second, third} {
		_, err = svc.AddTrack(ctx, playlist.ID, owner.ID, track.ID)
		require.NoError(t, err)
	}

	loaded, err := svc.GetOwned(ctx, playlist.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tracks, 3)
	assert.Equal(t, []string{"rock", "jazz"}, []string(loaded.Genres))
	assert.Equal(t, []string{"energetic", "calm", "uplifting"}, []string(loaded.Moods))

	// removing the middle entry compacts positions
	_, err = svc.RemoveTrack(ctx, playlist.ID, owner.ID, second.ID)
	require.NoError(t, err)

	loaded, err = svc.GetOwned(ctx, playlist.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tracks, 2)
	assert.Equal(t, 0, loaded.Tracks[0].Position)
	assert.Equal(t, first.ID, loaded.Tracks[0].TrackID)
	assert.Equal(t, 1, loaded.Tracks[1].Position)
	assert.Equal(t, third.ID, loaded.Tracks[1].TrackID)
	assert.Equal(t, []string{"rock"}, []string(loaded.Genres))
	assert.NotContains(t, []string(loaded.Moods), "calm")
}

func TestPlaylistAddTrackUnknownTrack(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	svc := NewPlaylistService(db)

	playlist, err := svc.Create(context.Background(), owner.ID, "Sparse", "", false)
	require.NoError(t, err)

	var notFoundErr *NotFoundError
	_, err = svc.AddTrack(context.Background(), playlist.ID, owner.ID, 99999)
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "track", notFoundErr.Resource)
}

func TestPlaylistDelete(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	intruder := seedUser(t, db, "intruder@example.com")
	svc := NewPlaylistService(db)
	ctx := context.Background()

	playlist, err := svc.Create(ctx, owner.ID, "Ephemeral", "", false)
	require.NoError(t, err)
	track := seedCatalogTrack(t, db, "Gone Soon", "pop", []string{"happy"}, 30)
	_, err = svc.AddTrack(ctx, playlist.ID, owner.ID, track.ID)
	require.NoError(t, err)

	var ownershipErr *OwnershipError
	require.ErrorAs(t, svc.Delete(ctx, playlist.ID, intruder.ID), &ownershipErr)

	require.NoError(t, svc.Delete(ctx, playlist.ID, owner.ID))

	var notFoundErr *NotFoundError
	_, err = svc.GetOwned(ctx, playlist.ID, owner.ID)
	require.ErrorAs(t, err, &notFoundErr)

	var entryCount int64
	require.NoError(t, db.Model(&models.PlaylistTrack{}).Where("playlist_id = ?", playlist.ID).Count(&entryCount).Error)
	assert.Zero(t, entryCount)
}

func TestPlaylistListByOwner(t *testing.T) {
	db := openTestDB(t)
	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	svc := NewPlaylistService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, owner.ID, "Mine One", "", false)
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner.ID, "Mine Two", "", true)
	require.NoError(t, err)
	_, err = svc.Create(ctx, other.ID, "Theirs", "", true)
	require.NoError(t, err)

	playlists, err := svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, playlists, 2)
	for _, p := range playlists {
		assert.Equal(t, owner.ID, p.OwnerID)
	}
}
