package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/wordbook/internal/common"
	"github.com/dmitrijs2005/wordbook/internal/server/models"
	"github.com/dmitrijs2005/wordbook/internal/server/repositories/entries/entriestest"
	"github.com/dmitrijs2005/wordbook/internal/server/storage/storagetest"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func draft(term string) models.Draft {
	return models.Draft{Term: term, Description: "meaning of " + term}
}

func TestCreate_PreservesFields(t *testing.T) {
	f := newFixture(t, false)
	d := models.Draft{
		Term:        "break the ice",
		Description: "to start a conversation",
		Source:      "Friends, S01E01",
		Media:       models.MediaList{{URL: mediaURL("a.png"), Kind: models.MediaImage}},
	}

	e, err := f.svc.Create(signedIn(alice), d)
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, alice, e.OwnerID)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
	assert.Empty(t, cmp.Diff(d, models.DraftOf(*e)))
}

func TestCreate_DoesNotAliasDraftMedia(t *testing.T) {
	f := newFixture(t, false)
	d := draft("apple")
	d.Media = models.MediaList{{URL: mediaURL("a.png"), Kind: models.MediaImage}}

	e, err := f.svc.Create(signedIn(alice), d)
	require.NoError(t, err)
	d.Media[0].URL = "mutated"

	stored, err := f.svc.Get(signedIn(alice), e.ID)
	require.NoError(t, err)
	assert.Equal(t, mediaURL("a.png"), stored.Media[0].URL)
}

func TestCreate_ValidationBlocksGateway(t *testing.T) {
	cases := []struct {
		name  string
		draft models.Draft
		field string
	}{
		{name: "blank term", draft: models.Draft{Term: "  ", Description: "d"}, field: "term"},
		{name: "empty description", draft: models.Draft{Term: "t"}, field: "description"},
		{name: "whitespace description", draft: models.Draft{Term: "t", Description: "\n\t"}, field: "description"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, false)

			_, err := f.svc.Create(signedIn(alice), tc.draft)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Zero(t, f.repo.Writes())
		})
	}
}

func TestCreate_RequiresSession(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.Create(context.Background(), draft("apple"))
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, f.repo.Writes())
}

func TestReads_RequireSession(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.List(context.Background(), models.ListOptions{})
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = f.svc.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrAuthRequired)
	_, err = f.svc.Update(context.Background(), "x", models.Patch{Source: strp("s")})
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), "x", true), ErrAuthRequired)
	_, err = f.svc.AttachMedia(context.Background(), "x", []UploadFile{imageFile("a.png", "a")})
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.Zero(t, f.store.Len())
}

func TestUpdate_SourceRoundTrip(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)

	created, err := f.svc.Create(ctx, draft("apple"))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, models.Patch{Source: strp("The Hobbit")})
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", updated.Source)
	assert.Equal(t, created.Term, updated.Term)
	assert.Equal(t, created.Description, updated.Description)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	again, err := f.svc.Update(ctx, created.ID, models.Patch{Source: strp("")})
	require.NoError(t, err)
	assert.Empty(t, again.Source)
	assert.True(t, again.UpdatedAt.After(updated.UpdatedAt))
}

func TestUpdate_EmptyPatchWritesNothing(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)
	created, err := f.svc.Create(ctx, draft("apple"))
	require.NoError(t, err)

	got, err := f.svc.Update(ctx, created.ID, models.Patch{})
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, got.UpdatedAt)
	assert.Equal(t, 1, f.repo.Writes())
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)
	created, err := f.svc.Create(ctx, draft("apple"))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, created.ID, models.Patch{Description: strp(" ")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)
	assert.Equal(t, 1, f.repo.Writes())
}

func TestUpdate_DiffOfEditedDraft(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)
	created, err := f.svc.Create(ctx, draft("apple"))
	require.NoError(t, err)

	edited := models.DraftOf(*created)
	edited.Term = "Apple"
	updated, err := f.svc.Update(ctx, created.ID, models.Diff(*created, edited))
	require.NoError(t, err)
	assert.Equal(t, "Apple", updated.Term)
	assert.Equal(t, created.Description, updated.Description)
}

func TestOwnership(t *testing.T) {
	f := newFixture(t, false)
	created, err := f.svc.Create(signedIn(alice), draft("apple"))
	require.NoError(t, err)

	_, err = f.svc.Get(signedIn(bob), created.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = f.svc.Update(signedIn(bob), created.ID, models.Patch{Term: strp("mine")})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, f.svc.Delete(signedIn(bob), created.ID, true), common.ErrorNotFound)

	list, err := f.svc.List(signedIn(bob), models.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)
	created, err := f.svc.Create(ctx, draft("apple"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID, false), ErrConfirmationRequired)
	assert.Equal(t, 1, f.repo.Writes())

	require.NoError(t, f.svc.Delete(ctx, created.ID, true))
	_, err = f.svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, created.ID, true), common.ErrorNotFound)
}

func TestList_Order(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)
	for _, term := range []string{"banana", "cherry", "Apple"} {
		_, err := f.svc.Create(ctx, draft(term))
		require.NoError(t, err)
	}

	terms := func(list []*models.Entry) []string {
		out := make([]string, 0, len(list))
		for _, e := range list {
			out = append(out, e.Term)
		}
		return out
	}

	alpha, err := f.svc.List(ctx, models.ListOptions{Order: models.SortAlphabetical})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "banana", "cherry"}, terms(alpha))

	latest, err := f.svc.List(ctx, models.ListOptions{Order: models.SortLatest})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "cherry", "banana"}, terms(latest))

	filtered, err := f.svc.List(ctx, models.ListOptions{Order: models.SortAlphabetical, Term: "AN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"banana"}, terms(filtered))
}

func TestAttachMedia(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)
	d := draft("apple")
	d.Media = models.MediaList{{URL: mediaURL("old.png"), Kind: models.MediaImage}}
	created, err := f.svc.Create(ctx, d)
	require.NoError(t, err)

	updated, err := f.svc.AttachMedia(ctx, created.ID, []UploadFile{imageFile("a.png", "a"), {Name: "b.mp4", ContentType: "video/mp4", Data: []byte("b")}})
	require.NoError(t, err)
	require.Len(t, updated.Media, 3)
	assert.Equal(t, mediaURL("old.png"), updated.Media[0].URL)
	assert.Equal(t, models.MediaVideo, updated.Media[2].Kind)
	assert.True(t, f.store.HasURL(updated.Media[1].URL))
}

func TestAttachMedia_MissingEntryUploadsNothing(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.svc.AttachMedia(signedIn(alice), "missing", []UploadFile{imageFile("a.png", "a")})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Zero(t, f.store.Len())
}

// A failed file leaves its siblings stored but unreferenced. Uploading only
// the failed file again and saving all of them completes the entry.
func TestAttachMedia_FailureThenRetry(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)
	created, err := f.svc.Create(ctx, draft("apple"))
	require.NoError(t, err)

	failing := true
	f.store.PutHook = func(_ string, body []byte) error {
		if failing && string(body) == "second" {
			return errBoom
		}
		return nil
	}
	files := []UploadFile{imageFile("1.png", "first"), imageFile("2.png", "second"), imageFile("3.png", "third")}

	_, err = f.svc.AttachMedia(ctx, created.ID, files)
	var uerr *UploadError
	require.ErrorAs(t, err, &uerr)
	require.Len(t, uerr.Orphaned, 2)
	for _, m := range uerr.Orphaned {
		assert.True(t, f.store.HasURL(m.URL))
	}

	current, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, current.Media)

	failing = false
	retried, err := f.media.Upload(ctx, []UploadFile{files[uerr.Failed[0].Index]})
	require.NoError(t, err)

	media := MergeMedia(current.Media, MergeMedia(uerr.Orphaned, retried))
	final, err := f.svc.Update(ctx, created.ID, models.Patch{Media: &media})
	require.NoError(t, err)
	assert.Len(t, final.Media, 3)
	for _, m := range final.Media {
		assert.True(t, f.store.HasURL(m.URL))
	}
}

type failingUpdateRepo struct {
	*entriestest.Memory
}

func (failingUpdateRepo) Update(context.Context, string, string, models.Patch) (*models.Entry, error) {
	return nil, errBoom
}

func TestAttachMedia_WriteFailureLeavesObjects(t *testing.T) {
	repo := failingUpdateRepo{entriestest.NewMemory()}
	f := newFixtureWithRepo(t, false, repo)
	ctx := signedIn(alice)
	created, err := f.svc.Create(ctx, draft("apple"))
	require.NoError(t, err)

	_, err = f.svc.AttachMedia(ctx, created.ID, []UploadFile{imageFile("a.png", "a")})
	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "update entry", gerr.Op)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, 1, f.store.Len())
}

type failingRepo struct {
	*entriestest.Memory
}

func (failingRepo) Insert(context.Context, *models.Entry) (*models.Entry, error) {
	return nil, errBoom
}

func (failingRepo) List(context.Context, string, models.ListOptions) ([]*models.Entry, error) {
	return nil, errBoom
}

func TestGatewayErrors(t *testing.T) {
	f := newFixtureWithRepo(t, false, failingRepo{entriestest.NewMemory()})

	_, err := f.svc.Create(signedIn(alice), draft("apple"))
	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "insert entry", gerr.Op)
	assert.ErrorIs(t, err, errBoom)

	_, err = f.svc.List(signedIn(alice), models.ListOptions{})
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "list entries", gerr.Op)
}

func TestOrphans_PreservedByDefault(t *testing.T) {
	f := newFixture(t, false)
	ctx := signedIn(alice)
	uploaded, err := f.media.Upload(ctx, []UploadFile{imageFile("a.png", "a"), imageFile("b.png", "b")})
	require.NoError(t, err)

	d := draft("apple")
	d.Media = uploaded
	created, err := f.svc.Create(ctx, d)
	require.NoError(t, err)

	kept := models.MediaList{uploaded[1]}
	_, err = f.svc.Update(ctx, created.ID, models.Patch{Media: &kept})
	require.NoError(t, err)
	assert.True(t, f.store.HasURL(uploaded[0].URL))

	require.NoError(t, f.svc.Delete(ctx, created.ID, true))
	assert.Equal(t, 2, f.store.Len())
}

func TestOrphans_Reclaimed(t *testing.T) {
	f := newFixture(t, true)
	ctx := signedIn(alice)
	uploaded, err := f.media.Upload(ctx, []UploadFile{imageFile("a.png", "a"), imageFile("b.png", "b")})
	require.NoError(t, err)

	d := draft("apple")
	d.Media = uploaded
	created, err := f.svc.Create(ctx, d)
	require.NoError(t, err)

	kept := models.MediaList{uploaded[1]}
	_, err = f.svc.Update(ctx, created.ID, models.Patch{Media: &kept})
	require.NoError(t, err)
	assert.False(t, f.store.HasURL(uploaded[0].URL))
	assert.True(t, f.store.HasURL(uploaded[1].URL))

	require.NoError(t, f.svc.Delete(ctx, created.ID, true))
	assert.Zero(t, f.store.Len())
}

func mediaURL(key string) string {
	return storagetest.BaseURL + "/" + key
}
