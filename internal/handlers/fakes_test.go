// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogapi/internal/auth"
	"blogapi/internal/models"
	"blogapi/internal/slug"
	"blogapi/internal/store"
)

// errBoom stands in for a database failure.
var errBoom = errors.New("boom")

// memBlog is an in-memory stand-in for the store layer. It keeps the
// same published_at, slug uniqueness, and cascade rules as Postgres.
type memBlog struct {
	mu         sync.Mutex
	now        time.Time
	posts      map[int64]*models.Post
	categories map[int64]*models.Category
	tags       map[string]*models.Tag
	links      map[int64][]int64
	comments   map[int64]*models.Comment
	media      []models.Media
	adminID    int64
	nextID     int64

	// failOn makes the named method return errBoom.
	failOn string
}

func newMemBlog() *memBlog {
	return &memBlog{
		now:        time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC),
		posts:      map[int64]*models.Post{},
		categories: map[int64]*models.Category{},
		tags:       map[string]*models.Tag{},
		links:      map[int64][]int64{},
		comments:   map[int64]*models.Comment{},
		adminID:    1,
	}
}

func (m *memBlog) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memBlog) tick() time.Time {
	m.now = m.now.Add(time.Minute)
	return m.now
}

func (m *memBlog) fail(op string) error {
	if m.failOn == op {
		return errBoom
	}
	return nil
}

// PostStore

func (m *memBlog) withJoins(p models.Post) models.Post {
	if p.CategoryID != nil {
		if c := m.categories[*p.CategoryID]; c != nil {
			p.CategoryName, p.CategorySlug = c.Name, c.Slug
		}
	}
	p.Tags = []models.TagRef{}
	for _, tid := range m.links[p.ID] {
		for _, t := range m.tags {
			if t.ID == tid {
				p.Tags = append(p.Tags, models.TagRef{ID: t.ID, Name: t.Name, Slug: t.Slug, Source: t.Source})
			}
		}
	}
	return p
}

func (m *memBlog) sortedPosts() []*models.Post {
	out := make([]*models.Post, 0, len(m.posts))
	for _, p := range m.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memBlog) List(_ context.Context, f models.PostFilter) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("List"); err != nil {
		return nil, err
	}
	out := []models.Post{}
	for _, p := range m.sortedPosts() {
		if p.Status != models.PostStatusPublished {
			continue
		}
		jp := m.withJoins(*p)
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(f.Search)) {
			continue
		}
		if f.Category != "" && jp.CategorySlug != f.Category {
			continue
		}
		if f.Tag != "" && !hasTag(jp.Tags, f.Tag) {
			continue
		}
		out = append(out, jp)
	}
	return out, nil
}

func hasTag(tags []models.TagRef, s string) bool {
	for _, t := range tags {
		if t.Slug == s {
			return true
		}
	}
	return false
}

func (m *memBlog) ListAll(_ context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListAll"); err != nil {
		return nil, err
	}
	out := []models.Post{}
	for _, p := range m.sortedPosts() {
		out = append(out, m.withJoins(*p))
	}
	return out, nil
}

func (m *memBlog) FindBySlug(_ context.Context, s string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindBySlug"); err != nil {
		return nil, err
	}
	for _, p := range m.posts {
		if p.Slug == s && p.Status == models.PostStatusPublished {
			jp := m.withJoins(*p)
			return &jp, nil
		}
	}
	return nil, nil
}

func (m *memBlog) FindByID(_ context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("FindByID"); err != nil {
		return nil, err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, nil
	}
	jp := m.withJoins(*p)
	return &jp, nil
}

func (m *memBlog) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Exists"); err != nil {
		return false, err
	}
	_, ok := m.posts[id]
	return ok, nil
}

func (m *memBlog) Create(_ context.Context, in models.PostInput) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Create"); err != nil {
		return nil, err
	}
	if _, ok := m.categories[in.CategoryID]; !ok {
		return nil, store.ErrInvalidReference
	}
	for _, p := range m.posts {
		if p.Slug == in.Slug {
			return nil, store.ErrConflict
		}
	}
	now := m.tick()
	categoryID := in.CategoryID
	p := &models.Post{
		ID: m.id(), Title: in.Title, Slug: in.Slug, Content: in.Content, Excerpt: in.Excerpt,
		Status: in.Status, Featured: in.Featured, ReadingTimeMinutes: in.ReadingTimeMinutes,
		CategoryID: &categoryID, AuthorID: in.AuthorID, CreatedAt: now, UpdatedAt: now,
	}
	if in.Status == models.PostStatusPublished {
		p.PublishedAt = &now
	}
	m.posts[p.ID] = p
	out := *p
	out.Tags = []models.TagRef{}
	return &out, nil
}

func (m *memBlog) Update(_ context.Context, id int64, patch models.PostPatch) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Update"); err != nil {
		return nil, err
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := m.tick()
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.ReadingTimeMinutes != nil {
		p.ReadingTimeMinutes = *patch.ReadingTimeMinutes
	}
	if patch.Excerpt != nil {
		p.Excerpt = patch.Excerpt
	}
	if patch.CategoryID != nil {
		p.CategoryID = patch.CategoryID
	}
	if patch.Featured != nil {
		p.Featured = *patch.Featured
	}
	if patch.Status != nil {
		p.Status = *patch.Status
		if p.Status == models.PostStatusPublished && p.PublishedAt == nil {
			p.PublishedAt = &now
		}
	}
	p.UpdatedAt = now
	out := *p
	out.Tags = []models.TagRef{}
	return &out, nil
}

func (m *memBlog) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Delete"); err != nil {
		return err
	}
	if _, ok := m.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.posts, id)
	delete(m.links, id)
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
		}
	}
	return nil
}

func (m *memBlog) IncrementViews(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("IncrementViews"); err != nil {
		return err
	}
	if p, ok := m.posts[id]; ok {
		p.ViewCount++
	}
	return nil
}

// TagStore

func (m *memBlog) Upsert(_ context.Context, name string) (*models.Tag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("Upsert"); err != nil {
		return nil, err
	}
	s := slug.Generate(name)
	if t, ok := m.tags[s]; ok {
		t.Name = name
		return t, nil
	}
	t := &models.Tag{ID: m.id(), Name: name, Slug: s, Source: models.TagSourceManual}
	m.tags[s] = t
	return t, nil
}

func (m *memBlog) Link(_ context.Context, postID, tagID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.links[postID] {
		if existing == tagID {
			return nil
		}
	}
	m.links[postID] = append(m.links[postID], tagID)
	return nil
}

// AuthorResolver

type fakeAuthors struct {
	byEmail map[string]int64
	adminID int64
	err     error
	gotArg  string
}

func (f *fakeAuthors) ResolveAuthor(_ context.Context, email string) (*int64, error) {
	f.gotArg = email
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := f.byEmail[email]; ok {
		return &id, nil
	}
	if f.adminID == 0 {
		return nil, nil
	}
	id := f.adminID
	return &id, nil
}

// CategoryStore, wrapped so its method names do not clash with posts.

type memCategories struct{ *memBlog }

func (c memCategories) List(_ context.Context) ([]models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("Categories.List"); err != nil {
		return nil, err
	}
	out := []models.Category{}
	for _, cat := range c.categories {
		cc := *cat
		cc.PostCount = 0
		for _, p := range c.posts {
			if p.CategoryID != nil && *p.CategoryID == cat.ID && p.Status == models.PostStatusPublished {
				cc.PostCount++
			}
		}
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c memCategories) Create(_ context.Context, name, s string, description *string) (*models.Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("Categories.Create"); err != nil {
		return nil, err
	}
	for _, cat := range c.categories {
		if cat.Slug == s {
			return nil, store.ErrConflict
		}
	}
	cat := &models.Category{ID: c.id(), Name: name, Slug: s, Description: description, CreatedAt: c.tick()}
	c.categories[cat.ID] = cat
	out := *cat
	return &out, nil
}

// CommentStore

type memComments struct{ *memBlog }

func (c memComments) ListApproved(_ context.Context, postID int64) ([]models.PublicComment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []models.PublicComment{}
	for _, cm := range c.sortedComments() {
		if cm.PostID == postID && cm.Status == models.CommentStatusApproved {
			out = append(out, models.PublicComment{ID: cm.ID, AuthorName: cm.AuthorName, Content: cm.Content, CreatedAt: cm.CreatedAt})
		}
	}
	return out, nil
}

func (c memComments) sortedComments() []*models.Comment {
	out := make([]*models.Comment, 0, len(c.comments))
	for _, cm := range c.comments {
		out = append(out, cm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c memComments) Create(_ context.Context, postID int64, authorName string, authorEmail *string, content string) (*models.Comment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("Comments.Create"); err != nil {
		return nil, err
	}
	if _, ok := c.posts[postID]; !ok {
		return nil, store.ErrInvalidReference
	}
	cm := &models.Comment{
		ID: c.id(), PostID: postID, AuthorName: authorName, AuthorEmail: authorEmail,
		Content: content, Status: models.CommentStatusPending, CreatedAt: c.tick(),
	}
	c.comments[cm.ID] = cm
	out := *cm
	return &out, nil
}

func (c memComments) UpdateStatus(_ context.Context, id int64, status models.CommentStatus) (*models.Comment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cm, ok := c.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cm.Status = status
	out := *cm
	return &out, nil
}

func (c memComments) ListAll(_ context.Context, status models.CommentStatus) ([]models.Comment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail("Comments.ListAll"); err != nil {
		return nil, err
	}
	out := []models.Comment{}
	for _, cm := range c.sortedComments() {
		if status == "" || cm.Status == status {
			out = append(out, *cm)
		}
	}
	return out, nil
}

// commentCount returns the number of stored comments.
func (m *memBlog) commentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.comments)
}

// views returns a post's view count.
func (m *memBlog) views(id int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[id].ViewCount
}

// StatsCollector

type fakeStats struct {
	stats *models.Stats
	err   error
}

func (f fakeStats) Collect(context.Context) (*models.Stats, error) {
	return f.stats, f.err
}

// MediaStore

type memMedia struct {
	mu    sync.Mutex
	items []models.Media
	err   error
	limit int
	off   int
}

func (m *memMedia) Create(_ context.Context, md *models.Media) (*models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := *md
	out.CreatedAt = time.Date(2026, time.October, 1, 9, 0, 0, 0, time.UTC)
	m.items = append(m.items, out)
	return &out, nil
}

func (m *memMedia) List(_ context.Context, limit, offset int) ([]models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit, m.off = limit, offset
	out := make([]models.Media, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memMedia) FindByID(_ context.Context, id uuid.UUID) (*models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			out := m.items[i]
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memMedia) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

// ObjectStore

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	err     error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (o *memObjects) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	if o.err != nil {
		return o.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = data
	return nil
}

func (o *memObjects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	o.deleted = append(o.deleted, key)
	return nil
}

func (o *memObjects) FileURL(key string) string { return "https://cdn.example.com/" + key }
func (o *memObjects) Bucket() string            { return "blog-media" }

// testAPI wires every handler over one memBlog into a chi router with the
// production paths. Admin routes carry the dev identity.
type testAPI struct {
	blog    *memBlog
	authors *fakeAuthors
	stats   *fakeStats
	media   *memMedia
	objects *memObjects
	posts   *Posts
	router  http.Handler
}

func newTestAPI() *testAPI {
	blog := newMemBlog()
	api := &testAPI{
		blog:    blog,
		authors: &fakeAuthors{byEmail: map[string]int64{}, adminID: 1},
		stats:   &fakeStats{},
		media:   &memMedia{},
		objects: newMemObjects(),
	}
	api.posts = NewPosts(blog, blog, api.authors)
	categories := NewCategories(memCategories{blog})
	comments := NewComments(memComments{blog}, blog)
	admin := NewAdmin(api.stats, blog, memComments{blog})
	media := NewMedia(api.media, api.objects)
	media.now = func() time.Time { return time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC) }

	withDev := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), auth.DevIdentity())))
		})
	}

	r := chi.NewRouter()
	r.Get("/api/posts", api.posts.List)
	r.Get("/api/posts/{slug}", api.posts.GetBySlug)
	r.Get("/api/categories", categories.List)
	r.Get("/api/posts/{postId}/comments", comments.List)
	r.Post("/api/posts/{postId}/comments", comments.Create)
	r.Group(func(r chi.Router) {
		r.Use(withDev)
		r.Post("/api/posts", api.posts.Create)
		r.Put("/api/posts/{id}", api.posts.Update)
		r.Delete("/api/posts/{id}", api.posts.Delete)
		r.Post("/api/categories", categories.Create)
		r.Put("/api/comments/{id}/status", comments.UpdateStatus)
		r.Get("/api/admin/stats", admin.Stats)
		r.Get("/api/admin/posts", admin.ListPosts)
		r.Get("/api/admin/posts/{id}", admin.GetPost)
		r.Get("/api/admin/comments", admin.ListComments)
		r.Get("/api/admin/media", media.List)
		r.Post("/api/admin/media", media.Upload)
		r.Delete("/api/admin/media/{id}", media.Delete)
	})
	api.router = r
	return api
}

// seedCategory inserts a category directly.
func (a *testAPI) seedCategory(name string) int64 {
	cat, err := memCategories{a.blog}.Create(context.Background(), name, slug.Generate(name), nil)
	if err != nil {
		panic(err)
	}
	return cat.ID
}

// seedPost inserts a post directly.
func (a *testAPI) seedPost(title string, status models.PostStatus, categoryID int64) *models.Post {
	p, err := a.blog.Create(context.Background(), models.PostInput{
		Title: title, Slug: slug.Generate(title), Content: "body", Status: status,
		ReadingTimeMinutes: 1, CategoryID: categoryID,
	})
	if err != nil {
		panic(err)
	}
	return p
}
