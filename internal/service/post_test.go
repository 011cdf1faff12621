package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkhouse/inkhouse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePostStore struct {
	mu     sync.Mutex
	posts  map[uint]*models.Post
	nextID uint
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[uint]*models.Post), nextID: 1}
}

func (f *fakePostStore) Create(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	post.ID = f.nextID
	f.nextID++
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt

	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakePostStore) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	post, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (f *fakePostStore) ListByAuthor(ctx context.Context, authorID uuid.UUID, status string, limit, offset int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var posts []models.Post
	for _, post := range f.posts {
		if post.AuthorID != authorID {
			continue
		}
		if status != "" && post.Status != status {
			continue
		}
		posts = append(posts, *post)
	}

	sort.Slice(posts, func(i, j int) bool {
		return posts[i].UpdatedAt.After(posts[j].UpdatedAt)
	})

	if offset >= len(posts) {
		return nil, nil
	}
	posts = posts[offset:]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (f *fakePostStore) CountByAuthor(ctx context.Context, authorID uuid.UUID, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for _, post := range f.posts {
		if post.AuthorID != authorID {
			continue
		}
		if status != "" && post.Status != status {
			continue
		}
		count++
	}
	return count, nil
}

func (f *fakePostStore) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, post := range f.posts {
		if post.Slug == slug && post.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePostStore) Update(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	post.UpdatedAt = time.Now()
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakePostStore) Delete(ctx context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.posts, id)
	return nil
}

func strPtr(s string) *string { return &s }

func TestCreateSetsSlugAndDefaults(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	author := uuid.New()

	post, err := svc.Create(context.Background(), author, CreateInput{
		Title:   "My Test Post!!",
		Content: "<p>hi</p>",
	})
	require.NoError(t, err)

	assert.Equal(t, "my-test-post", post.Slug)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.Nil(t, post.PubDate)
	assert.True(t, post.AllowComments)
	assert.Equal(t, author, post.AuthorID)
}

func TestCreateSlugCollisionGetsTimestampSuffix(t *testing.T) {
	store := newFakePostStore()
	svc := NewPostService(store)
	author := uuid.New()

	first, err := svc.Create(context.Background(), author, CreateInput{Title: "My Test Post!!", Content: "a"})
	require.NoError(t, err)

	second, err := svc.Create(context.Background(), author, CreateInput{Title: "My Test Post!!", Content: "b"})
	require.NoError(t, err)

	assert.Equal(t, "my-test-post", first.Slug)
	assert.NotEqual(t, first.Slug, second.Slug)
	assert.Regexp(t, `^my-test-post-\d+$`, second.Slug)
}

func TestCreatePublishedSetsPubDate(t *testing.T) {
	svc := NewPostService(newFakePostStore())

	post, err := svc.Create(context.Background(), uuid.New(), CreateInput{
		Title:   "Hello",
		Content: "body",
		Status:  models.PostStatusPublished,
	})
	require.NoError(t, err)

	require.NotNil(t, post.PubDate)
	assert.WithinDuration(t, time.Now(), *post.PubDate, time.Minute)
}

func TestCreateValidation(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	author := uuid.New()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing title", CreateInput{Content: "body"}},
		{"missing content", CreateInput{Title: "t"}},
		{"title too long", CreateInput{Title: string(make([]byte, 201)), Content: "body"}},
		{"archived not creatable", CreateInput{Title: "t", Content: "c", Status: models.PostStatusArchived}},
		{"unknown status", CreateInput{Title: "t", Content: "c", Status: "pending"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), author, tt.input)
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestGetOwnershipAndExistence(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()
	stranger := uuid.New()

	post, err := svc.Create(context.Background(), owner, CreateInput{Title: "Mine", Content: "c"})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	_, err = svc.Get(context.Background(), stranger, post.ID)
	assert.ErrorIs(t, err, ErrNotPostOwner)

	_, err = svc.Get(context.Background(), owner, 9999)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdateEmptyPatchRejected(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	post, err := svc.Create(context.Background(), owner, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), owner, post.ID, PostPatch{})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdatePubDateLatches(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	post, err := svc.Create(context.Background(), owner, CreateInput{Title: "Hello", Content: "c"})
	require.NoError(t, err)
	require.Nil(t, post.PubDate)

	published := models.PostStatusPublished

	updated, err := svc.Update(context.Background(), owner, post.ID, PostPatch{Status: &published})
	require.NoError(t, err)
	require.NotNil(t, updated.PubDate)
	firstPubDate := *updated.PubDate

	// Publishing again must not move the timestamp
	again, err := svc.Update(context.Background(), owner, post.ID, PostPatch{Status: &published})
	require.NoError(t, err)
	require.NotNil(t, again.PubDate)
	assert.Equal(t, firstPubDate, *again.PubDate)
}

func TestUpdateRegeneratesSlugOnlyOnTitleChange(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	post, err := svc.Create(context.Background(), owner, CreateInput{Title: "Original Title", Content: "c"})
	require.NoError(t, err)

	// Content-only patch leaves the slug alone
	updated, err := svc.Update(context.Background(), owner, post.ID, PostPatch{Content: strPtr("new body")})
	require.NoError(t, err)
	assert.Equal(t, "original-title", updated.Slug)

	// Title change regenerates
	updated, err = svc.Update(context.Background(), owner, post.ID, PostPatch{Title: strPtr("Brand New Title")})
	require.NoError(t, err)
	assert.Equal(t, "brand-new-title", updated.Slug)
}

func TestUpdateTitleDerivingSameSlugKeepsIt(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	post, err := svc.Create(context.Background(), owner, CreateInput{Title: "My Test Post", Content: "c"})
	require.NoError(t, err)
	require.Equal(t, "my-test-post", post.Slug)

	// A cosmetic title edit derives the same slug; the post must not
	// collide with its own row and pick up a timestamp suffix.
	updated, err := svc.Update(context.Background(), owner, post.ID, PostPatch{Title: strPtr("My Test Post!!")})
	require.NoError(t, err)
	assert.Equal(t, "My Test Post!!", updated.Title)
	assert.Equal(t, "my-test-post", updated.Slug)
}

func TestTitleLengthCountsRunes(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	// 200 multibyte characters is within the limit even though the
	// byte length is well over it.
	post, err := svc.Create(context.Background(), owner, CreateInput{
		Title:   strings.Repeat("é", 200),
		Content: "c",
	})
	require.NoError(t, err)

	tooLong := strings.Repeat("é", 201)

	_, err = svc.Create(context.Background(), owner, CreateInput{Title: tooLong, Content: "c"})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Update(context.Background(), owner, post.ID, PostPatch{Title: &tooLong})
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdateValidatesProvidedFields(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	post, err := svc.Create(context.Background(), owner, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	var validationErr *ValidationError

	_, err = svc.Update(context.Background(), owner, post.ID, PostPatch{Title: strPtr("")})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Update(context.Background(), owner, post.ID, PostPatch{Content: strPtr("")})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Update(context.Background(), owner, post.ID, PostPatch{Status: strPtr("pending")})
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdateForeignPostForbidden(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	post, err := svc.Create(context.Background(), owner, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), uuid.New(), post.ID, PostPatch{Content: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotPostOwner)
}

func TestDelete(t *testing.T) {
	store := newFakePostStore()
	svc := NewPostService(store)
	owner := uuid.New()

	post, err := svc.Create(context.Background(), owner, CreateInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(context.Background(), uuid.New(), post.ID), ErrNotPostOwner)
	require.NoError(t, svc.Delete(context.Background(), owner, post.ID))

	// Deleting again reports not found, not success
	assert.ErrorIs(t, svc.Delete(context.Background(), owner, post.ID), ErrPostNotFound)
}

func TestListScopesAndPaginates(t *testing.T) {
	store := newFakePostStore()
	svc := NewPostService(store)
	owner := uuid.New()
	other := uuid.New()

	for i := 0; i < 15; i++ {
		_, err := svc.Create(context.Background(), owner, CreateInput{
			Title:   fmt.Sprintf("Post %d", i),
			Content: "c",
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), other, CreateInput{Title: "Not Yours", Content: "c"})
	require.NoError(t, err)

	posts, total, err := svc.List(context.Background(), owner, ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	assert.Len(t, posts, 10)

	posts, _, err = svc.List(context.Background(), owner, ListParams{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, posts, 5)

	for _, post := range posts {
		assert.Equal(t, owner, post.AuthorID)
	}
}

func TestListValidation(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	var validationErr *ValidationError

	_, _, err := svc.List(context.Background(), owner, ListParams{Page: 0, Limit: 10})
	assert.ErrorAs(t, err, &validationErr)

	_, _, err = svc.List(context.Background(), owner, ListParams{Page: 1, Limit: 101})
	assert.ErrorAs(t, err, &validationErr)

	_, _, err = svc.List(context.Background(), owner, ListParams{Page: 1, Limit: 10, Status: "pending"})
	assert.ErrorAs(t, err, &validationErr)
}

func TestListStatusFilter(t *testing.T) {
	svc := NewPostService(newFakePostStore())
	owner := uuid.New()

	_, err := svc.Create(context.Background(), owner, CreateInput{Title: "Draft One", Content: "c"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), owner, CreateInput{Title: "Live One", Content: "c", Status: models.PostStatusPublished})
	require.NoError(t, err)

	posts, total, err := svc.List(context.Background(), owner, ListParams{Page: 1, Limit: 10, Status: models.PostStatusPublished})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, "Live One", posts[0].Title)
}
