// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"blogapi/internal/models"
	"blogapi/internal/readtime"
	"blogapi/internal/slug"
)

//go:embed seed.yaml
var seedData []byte

// Fixtures is the shape of seed.yaml.
type Fixtures struct {
	Author     FixtureAuthor     `yaml:"author"`
	Categories []FixtureCategory `yaml:"categories"`
	Posts      []FixturePost     `yaml:"posts"`
}

// FixtureAuthor is the single seeded user.
type FixtureAuthor struct {
	Email       string `yaml:"email"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
}

// FixtureCategory is a seeded category.
type FixtureCategory struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// FixturePost is a seeded post. Category refers to a category by name.
type FixturePost struct {
	Title    string           `yaml:"title"`
	Category string           `yaml:"category"`
	Status   string           `yaml:"status"`
	Featured bool             `yaml:"featured"`
	Excerpt  string           `yaml:"excerpt"`
	Content  string           `yaml:"content"`
	Tags     []FixtureTag     `yaml:"tags"`
	Comments []FixtureComment `yaml:"comments"`
}

// FixtureTag is a tag link. Source defaults to automated when a
// confidence is given and manual otherwise.
type FixtureTag struct {
	Name       string   `yaml:"name"`
	Source     string   `yaml:"source"`
	Confidence *float64 `yaml:"confidence"`
}

// FixtureComment is a seeded comment.
type FixtureComment struct {
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
	Content     string `yaml:"content"`
	Status      string `yaml:"status"`
}

// ParseFixtures decodes and checks seed data.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	if fx.Author.Email == "" || fx.Author.DisplayName == "" {
		return nil, fmt.Errorf("fixtures: author email and display_name are required")
	}
	if fx.Author.Role == "" {
		fx.Author.Role = string(models.RoleAdmin)
	}
	if !models.Role(fx.Author.Role).Valid() {
		return nil, fmt.Errorf("fixtures: unknown author role %q", fx.Author.Role)
	}

	known := make(map[string]bool, len(fx.Categories))
	for _, c := range fx.Categories {
		if c.Name == "" {
			return nil, fmt.Errorf("fixtures: category without a name")
		}
		known[c.Name] = true
	}

	for i := range fx.Posts {
		p := &fx.Posts[i]
		if p.Title == "" || p.Content == "" {
			return nil, fmt.Errorf("fixtures: post %d needs a title and content", i)
		}
		if !known[p.Category] {
			return nil, fmt.Errorf("fixtures: post %q references unknown category %q", p.Title, p.Category)
		}
		if p.Status == "" {
			p.Status = string(models.PostStatusDraft)
		}
		if !models.PostStatus(p.Status).Valid() {
			return nil, fmt.Errorf("fixtures: post %q has unknown status %q", p.Title, p.Status)
		}
		for j := range p.Tags {
			t := &p.Tags[j]
			if t.Source == "" {
				t.Source = string(models.TagSourceManual)
				if t.Confidence != nil {
					t.Source = string(models.TagSourceAutomated)
				}
			}
			if !models.TagSource(t.Source).Valid() {
				return nil, fmt.Errorf("fixtures: tag %q has unknown source %q", t.Name, t.Source)
			}
		}
		for j := range p.Comments {
			c := &p.Comments[j]
			if c.Status == "" {
				c.Status = string(models.CommentStatusPending)
			}
			if !models.CommentStatus(c.Status).Valid() {
				return nil, fmt.Errorf("fixtures: comment by %q has unknown status %q", c.AuthorName, c.Status)
			}
		}
	}

	return &fx, nil
}

// Seed populates the database with development data from the embedded
// seed.yaml. It does nothing when any user already exists. All rows are
// written in one transaction.
func Seed(ctx context.Context, db *DB) error {
	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	fx, err := ParseFixtures(seedData)
	if err != nil {
		return err
	}

	tx, err := db.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed begin: %w", db.classify("begin", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := seedFixtures(ctx, tx, fx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded",
		"author", fx.Author.Email,
		"categories", len(fx.Categories),
		"posts", len(fx.Posts),
	)
	return nil
}

func seedFixtures(ctx context.Context, q Querier, fx *Fixtures) error {
	var authorID int64
	err := q.QueryRow(ctx, `
		INSERT INTO users (email, display_name, role)
		VALUES ($1, $2, $3)
		RETURNING id
	`, fx.Author.Email, fx.Author.DisplayName, fx.Author.Role).Scan(&authorID)
	if err != nil {
		return fmt.Errorf("seed insert author: %w", err)
	}

	categoryIDs := make(map[string]int64, len(fx.Categories))
	for _, c := range fx.Categories {
		var id int64
		err := q.QueryRow(ctx, `
			INSERT INTO categories (name, slug, description)
			VALUES ($1, $2, NULLIF($3, ''))
			RETURNING id
		`, c.Name, slug.Generate(c.Name), c.Description).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert category %q: %w", c.Name, err)
		}
		categoryIDs[c.Name] = id
	}

	for _, p := range fx.Posts {
		var postID int64
		err := q.QueryRow(ctx, `
			INSERT INTO posts (title, slug, content, excerpt, status, featured,
			                   reading_time_minutes, category_id, author_id, published_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9,
			        CASE WHEN $5 = 'published' THEN NOW() END)
			RETURNING id
		`, p.Title, slug.Generate(p.Title), p.Content, p.Excerpt, p.Status, p.Featured,
			readtime.Minutes(p.Content), categoryIDs[p.Category], authorID).Scan(&postID)
		if err != nil {
			return fmt.Errorf("seed insert post %q: %w", p.Title, err)
		}

		for _, tag := range p.Tags {
			confidence := decimal.NullDecimal{}
			if tag.Confidence != nil {
				confidence = decimal.NewNullDecimal(decimal.NewFromFloat(*tag.Confidence))
			}

			var tagID int64
			err := q.QueryRow(ctx, `
				INSERT INTO tags (name, slug, source)
				VALUES ($1, $2, $3)
				ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
				RETURNING id
			`, tag.Name, slug.Generate(tag.Name), tag.Source).Scan(&tagID)
			if err != nil {
				return fmt.Errorf("seed upsert tag %q: %w", tag.Name, err)
			}

			if _, err := q.Exec(ctx, `
				INSERT INTO post_tags (post_id, tag_id, confidence)
				VALUES ($1, $2, $3)
				ON CONFLICT DO NOTHING
			`, postID, tagID, confidence); err != nil {
				return fmt.Errorf("seed link tag %q: %w", tag.Name, err)
			}
		}

		for _, c := range p.Comments {
			if _, err := q.Exec(ctx, `
				INSERT INTO comments (post_id, author_name, author_email, content, status)
				VALUES ($1, $2, NULLIF($3, ''), $4, $5)
			`, postID, c.AuthorName, c.AuthorEmail, c.Content, c.Status); err != nil {
				return fmt.Errorf("seed insert comment on %q: %w", p.Title, err)
			}
		}
	}

	return nil
}
