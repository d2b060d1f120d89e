package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ShiplakeCS/fakebook/internal/models"
)

const maxPostLength = 5000

const postSelect = `SELECT p.id, p.author_id, p.body, p.public, p.created_at, m.id, m.path
	FROM posts p
	LEFT JOIN media m ON m.id = p.media_id`

type PostService struct {
	db      DB
	friends FriendChecker
	media   *MediaService
}

func NewPostService(db DB, friends FriendChecker, media *MediaService) *PostService {
	return &PostService{db: db, friends: friends, media: media}
}

// Create stores a post with its optional media and initial tags in one
// transaction.
func (s *PostService) Create(ctx context.Context, params models.CreatePostParams) (*models.Post, error) {
	params.Body = strings.TrimSpace(params.Body)
	params.MediaPath = strings.TrimSpace(params.MediaPath)
	if params.Body == "" && params.MediaPath == "" {
		return nil, invalidInput("a post needs text or media")
	}
	if len(params.Body) > maxPostLength {
		return nil, invalidInput("post text is too long")
	}
	if params.MediaPath != "" {
		if err := s.media.ValidatePath(params.MediaPath); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin create post", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	post := &models.Post{AuthorID: params.AuthorID, Body: params.Body, Public: params.Public}
	var mediaID *uuid.UUID
	if params.MediaPath != "" {
		post.Media, err = insertMedia(ctx, tx, params.MediaPath)
		if err != nil {
			return nil, err
		}
		mediaID = &post.Media.ID
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO posts (author_id, body, media_id, public)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		params.AuthorID, params.Body, mediaID, params.Public,
	).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrAccountNotFound
		}
		return nil, storageError("insert post", err)
	}

	seen := make(map[uuid.UUID]bool, len(params.Tags))
	for _, tagged := range params.Tags {
		if seen[tagged] {
			continue
		}
		seen[tagged] = true
		if err := insertTag(ctx, tx, post.ID, tagged); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit create post", err)
	}
	committed = true

	return post, nil
}

func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := scanPost(s.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, storageError("get post", err)
	}
	return post, nil
}

// GetVisible loads a post on behalf of viewer, who may be nil for an
// anonymous request.
func (s *PostService) GetVisible(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Post, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := canView(ctx, s.friends, post, viewer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}
	return post, nil
}

// AddLike records that accountID likes the post. Liking twice is a no-op. An
// account can only like posts it is allowed to see.
func (s *PostService) AddLike(ctx context.Context, postID, accountID uuid.UUID) error {
	if _, err := s.GetVisible(ctx, postID, &accountID); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO post_likes (post_id, account_id)
		 VALUES ($1, $2)
		 ON CONFLICT (post_id, account_id) DO NOTHING`,
		postID, accountID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrAccountNotFound
		}
		return storageError("add like", err)
	}
	return nil
}

// AddTag tags accountID in the post. Tagging twice is a no-op.
func (s *PostService) AddTag(ctx context.Context, postID, accountID uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return storageError("begin add tag", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return storageError("check post", err)
	}
	if !exists {
		return ErrPostNotFound
	}

	if err := insertTag(ctx, tx, postID, accountID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storageError("commit add tag", err)
	}
	committed = true
	return nil
}

func insertTag(ctx context.Context, q DBConn, postID, accountID uuid.UUID) error {
	_, err := q.Exec(ctx,
		`INSERT INTO post_tags (post_id, account_id)
		 VALUES ($1, $2)
		 ON CONFLICT (post_id, account_id) DO NOTHING`,
		postID, accountID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrAccountNotFound
		}
		return storageError("add tag", err)
	}
	return nil
}

// VisiblePosts lists the author's posts that viewer may see, newest first.
// A nil viewer sees only public posts.
func (s *PostService) VisiblePosts(ctx context.Context, authorID uuid.UUID, viewer *uuid.UUID) ([]models.Post, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, authorID).Scan(&exists); err != nil {
		return nil, storageError("check author", err)
	}
	if !exists {
		return nil, ErrAccountNotFound
	}

	includePrivate, err := visibilityScope(ctx, s.friends, authorID, viewer)
	if err != nil {
		return nil, err
	}

	return s.queryPosts(ctx, "list visible posts",
		postSelect+`
		 WHERE p.author_id = $1 AND ($2 OR p.public)
		 ORDER BY p.created_at DESC`,
		authorID, includePrivate,
	)
}

// PostsTagging lists every post the account is tagged in, with no
// visibility filtering.
func (s *PostService) PostsTagging(ctx context.Context, accountID uuid.UUID) ([]models.Post, error) {
	return s.queryPosts(ctx, "list tagged posts",
		postSelect+`
		 JOIN post_tags t ON t.post_id = p.id
		 WHERE t.account_id = $1
		 ORDER BY p.created_at DESC`,
		accountID,
	)
}

// VisiblePostsTagging is PostsTagging filtered by what viewer may see.
func (s *PostService) VisiblePostsTagging(ctx context.Context, accountID uuid.UUID, viewer *uuid.UUID) ([]models.Post, error) {
	return s.queryPosts(ctx, "list visible tagged posts",
		postSelect+`
		 JOIN post_tags t ON t.post_id = p.id
		 WHERE t.account_id = $1
		   AND (p.public
		        OR p.author_id = $2::uuid
		        OR EXISTS(
		            SELECT 1 FROM friendships f
		            WHERE f.accepted
		              AND ((f.initiator_id = p.author_id AND f.recipient_id = $2::uuid)
		                OR (f.recipient_id = p.author_id AND f.initiator_id = $2::uuid))))
		 ORDER BY p.created_at DESC`,
		accountID, viewer,
	)
}

func (s *PostService) queryPosts(ctx context.Context, op, sql string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, storageError(op, err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return posts, nil
}

func (s *PostService) LikesOf(ctx context.Context, postID uuid.UUID) ([]models.AccountSummary, error) {
	return s.accountsFor(ctx, "list likes",
		`SELECT a.id, a.username, a.first_name, a.surname
		 FROM post_likes l
		 JOIN accounts a ON a.id = l.account_id
		 WHERE l.post_id = $1
		 ORDER BY l.created_at`,
		postID,
	)
}

func (s *PostService) TagsOf(ctx context.Context, postID uuid.UUID) ([]models.AccountSummary, error) {
	return s.accountsFor(ctx, "list tags",
		`SELECT a.id, a.username, a.first_name, a.surname
		 FROM post_tags t
		 JOIN accounts a ON a.id = t.account_id
		 WHERE t.post_id = $1
		 ORDER BY t.created_at`,
		postID,
	)
}

func (s *PostService) LikeCount(ctx context.Context, postID uuid.UUID) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return 0, storageError("count likes", err)
	}
	return count, nil
}

func (s *PostService) accountsFor(ctx context.Context, op, sql string, postID uuid.UUID) ([]models.AccountSummary, error) {
	rows, err := s.db.Query(ctx, sql, postID)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	list := []models.AccountSummary{}
	for rows.Next() {
		var a models.AccountSummary
		if err := rows.Scan(&a.ID, &a.Username, &a.FirstName, &a.Surname); err != nil {
			return nil, storageError(op, err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(op, err)
	}
	return list, nil
}

func scanPost(row Row) (*models.Post, error) {
	post := &models.Post{}
	var mediaID *uuid.UUID
	var mediaPath *string
	err := row.Scan(&post.ID, &post.AuthorID, &post.Body, &post.Public, &post.CreatedAt, &mediaID, &mediaPath)
	if err != nil {
		return nil, err
	}
	post.Media = mediaFromColumns(mediaID, mediaPath)
	return post, nil
}
