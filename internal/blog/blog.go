package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrSlugTaken = errors.New("slug already exists")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// InsertPost creates the post and attaches tags, creating missing tag rows
// on the way. An empty slug is derived from the title.
func (c *Conf) InsertPost(ctx context.Context, np NewPost, authorID string) (Post, error) {
	slug := np.Slug
	if slug == "" {
		slug = Slugify(np.Title)
	}

	taken, err := c.slugInUse(ctx, slug, "")
	if err != nil {
		return Post{}, err
	}
	if taken {
		return Post{}, ErrSlugTaken
	}

	p := Post{
		ID:         uuid.NewString(),
		Title:      np.Title,
		Slug:       slug,
		Content:    np.Content,
		Excerpt:    np.Excerpt,
		Published:  np.Published,
		AuthorID:   authorID,
		CategoryID: np.CategoryID,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	err = c.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO blog_posts (id, title, slug, content, excerpt, published, author_id, category_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, NULLIF($8, '')::uuid, $9, $10)
		`
		_, err := tx.ExecContext(ctx, query, p.ID, p.Title, p.Slug, p.Content, p.Excerpt,
			p.Published, p.AuthorID, p.CategoryID, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting post: %w", err)
		}
		tags, err := c.attachTags(ctx, tx, p.ID, np.Tags)
		if err != nil {
			return err
		}
		p.Tags = tags
		return nil
	})
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

// UpdatePost rewrites the post and re-attaches its tag set.
func (c *Conf) UpdatePost(ctx context.Context, id string, np NewPost) (Post, error) {
	current, err := c.GetPostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}

	slug := np.Slug
	if slug == "" {
		slug = Slugify(np.Title)
	}
	if slug != current.Slug {
		taken, err := c.slugInUse(ctx, slug, id)
		if err != nil {
			return Post{}, err
		}
		if taken {
			return Post{}, ErrSlugTaken
		}
	}

	p := current
	p.Title = np.Title
	p.Slug = slug
	p.Content = np.Content
	p.Excerpt = np.Excerpt
	p.Published = np.Published
	p.CategoryID = np.CategoryID
	p.UpdatedAt = time.Now().UTC()

	err = c.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE blog_posts SET title = $1, slug = $2, content = $3, excerpt = $4,
				published = $5, category_id = NULLIF($6, '')::uuid, updated_at = $7
			WHERE id = $8
		`
		if _, err := tx.ExecContext(ctx, query, p.Title, p.Slug, p.Content, p.Excerpt,
			p.Published, p.CategoryID, p.UpdatedAt, id); err != nil {
			return fmt.Errorf("updating post: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM blog_post_tags WHERE post_id = $1`, id); err != nil {
			return fmt.Errorf("clearing post tags: %w", err)
		}
		tags, err := c.attachTags(ctx, tx, id, np.Tags)
		if err != nil {
			return err
		}
		p.Tags = tags
		return nil
	})
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

func (c *Conf) attachTags(ctx context.Context, tx *sql.Tx, postID string, names []string) ([]Tag, error) {
	var tags []Tag
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var tagID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM blog_tags WHERE name = $1`, name).Scan(&tagID)
		if errors.Is(err, sql.ErrNoRows) {
			tagID = uuid.NewString()
			if _, err := tx.ExecContext(ctx, `INSERT INTO blog_tags (id, name) VALUES ($1, $2)`, tagID, name); err != nil {
				return nil, fmt.Errorf("inserting tag: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("querying tag: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO blog_post_tags (post_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, postID, tagID); err != nil {
			return nil, fmt.Errorf("attaching tag: %w", err)
		}
		tags = append(tags, Tag{ID: tagID, Name: name})
	}
	return tags, nil
}

func (c *Conf) GetPostByID(ctx context.Context, id string) (Post, error) {
	return c.getPost(ctx, "id::text", id)
}

func (c *Conf) GetPostBySlug(ctx context.Context, slug string) (Post, error) {
	return c.getPost(ctx, "slug", slug)
}

func (c *Conf) getPost(ctx context.Context, column, value string) (Post, error) {
	query := fmt.Sprintf(`
		SELECT id, title, slug, content, excerpt, published, views,
			COALESCE(author_id::text, ''), COALESCE(category_id::text, ''), created_at, updated_at
		FROM blog_posts WHERE %s = $1
	`, column)

	var p Post
	err := c.db.QueryRowContext(ctx, query, value).Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Published, &p.Views,
		&p.AuthorID, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("querying post: %w", err)
	}

	tags, err := c.tagsFor(ctx, p.ID)
	if err != nil {
		return Post{}, err
	}
	p.Tags = tags
	return p, nil
}

func (c *Conf) ListPosts(ctx context.Context, f Filter) ([]Post, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if f.PublishedOnly {
		where = append(where, "published = TRUE")
	}
	if f.Search != "" {
		args = append(args, "%"+strings.ToLower(f.Search)+"%")
		where = append(where, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(content) LIKE $%d)", len(args), len(args)))
	}
	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blog_posts WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting posts: %w", err)
	}

	args = append(args, f.Limit, (f.Page-1)*f.Limit)
	query := fmt.Sprintf(`
		SELECT id, title, slug, content, excerpt, published, views,
			COALESCE(author_id::text, ''), COALESCE(category_id::text, ''), created_at, updated_at
		FROM blog_posts WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var list []Post
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.Published,
			&p.Views, &p.AuthorID, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning post: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating posts: %w", err)
	}

	for i := range list {
		tags, err := c.tagsFor(ctx, list[i].ID)
		if err != nil {
			return nil, 0, err
		}
		list[i].Tags = tags
	}
	return list, total, nil
}

func (c *Conf) DeletePost(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordView bumps the view counter at most once per viewer: the counter
// only moves when the (post, viewer) pair is new. Returns whether it moved.
// An unknown post id reports ErrNotFound instead of a constraint failure.
func (c *Conf) RecordView(ctx context.Context, postID, viewerID string) (bool, error) {
	counted := false
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM blog_posts WHERE id::text = $1)`, postID).Scan(&exists); err != nil {
			return fmt.Errorf("checking post: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO post_views (post_id, viewer_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, postID, viewerID)
		if err != nil {
			return fmt.Errorf("recording view: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("recording view: %w", err)
		}
		if n == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE blog_posts SET views = views + 1 WHERE id = $1`, postID); err != nil {
			return fmt.Errorf("incrementing views: %w", err)
		}
		counted = true
		return nil
	})
	return counted, err
}

func (c *Conf) InsertCategory(ctx context.Context, name string) (Category, error) {
	cat := Category{ID: uuid.NewString(), Name: name, Slug: Slugify(name)}
	_, err := c.db.ExecContext(ctx, `INSERT INTO blog_categories (id, name, slug) VALUES ($1, $2, $3)`, cat.ID, cat.Name, cat.Slug)
	if err != nil {
		return Category{}, fmt.Errorf("inserting category: %w", err)
	}
	return cat, nil
}

func (c *Conf) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, slug FROM blog_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var list []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Slug); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		list = append(list, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return list, nil
}

func (c *Conf) DeleteCategory(ctx context.Context, id string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM blog_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return nil
}

func (c *Conf) tagsFor(ctx context.Context, postID string) ([]Tag, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT t.id, t.name
		FROM blog_tags t
		JOIN blog_post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.name
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("querying post tags: %w", err)
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tags: %w", err)
	}
	return tags, nil
}

func (c *Conf) slugInUse(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM blog_posts WHERE slug = $1 AND id::text <> $2`
	if err := c.db.QueryRowContext(ctx, query, slug, excludeID).Scan(&count); err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return count > 0, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return fmt.Errorf("failed to execute withTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
